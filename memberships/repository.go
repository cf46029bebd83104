package memberships

import (
	"database/sql"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// --- Catálogo de planes ---

func (r *Repository) GetPlans() ([]Plan, error) {
	rows, err := r.db.Query(`SELECT id, name, max_members, price, duration_days FROM membership_plans`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	plans := []Plan{}
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.MaxMembers, &p.Price, &p.DurationDays); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// GetPlanByID returns a plan by its ID
func (r *Repository) GetPlanByID(id int) (*Plan, error) {
	row := r.db.QueryRow(`SELECT id, name, max_members, price, duration_days FROM membership_plans WHERE id=? LIMIT 1`, id)
	var p Plan
	if err := row.Scan(&p.ID, &p.Name, &p.MaxMembers, &p.Price, &p.DurationDays); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) CreatePlan(p *Plan) error {
	res, err := r.db.Exec(`INSERT INTO membership_plans (name, max_members, price, duration_days) VALUES (?,?,?,?)`,
		p.Name, p.MaxMembers, p.Price, p.DurationDays)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = int(id)
	return nil
}

func (r *Repository) UpdatePlan(id int, p *Plan) error {
	_, err := r.db.Exec(`UPDATE membership_plans SET name=?, max_members=?, price=?, duration_days=? WHERE id=?`,
		p.Name, p.MaxMembers, p.Price, p.DurationDays, id)
	return err
}

func (r *Repository) DeletePlan(id int) error {
	_, err := r.db.Exec(`DELETE FROM membership_plans WHERE id=?`, id)
	return err
}

// --- Clientes ---

func (r *Repository) GetClientByID(id int) (*Client, error) {
	row := r.db.QueryRow(`SELECT id, full_name, phone, email FROM clients WHERE id=? LIMIT 1`, id)
	var c Client
	if err := row.Scan(&c.ID, &c.FullName, &c.Phone, &c.Email); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) CreateClient(c *Client) error {
	res, err := r.db.Exec(`INSERT INTO clients (full_name, phone, email) VALUES (?,?,?)`,
		c.FullName, c.Phone, c.Email)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = int(id)
	return nil
}

func (r *Repository) UpdateClient(c *Client) error {
	_, err := r.db.Exec(`UPDATE clients SET full_name=?, phone=?, email=? WHERE id=?`,
		c.FullName, c.Phone, c.Email, c.ID)
	return err
}

// SearchClients busca por nombre para el formulario de alta.
func (r *Repository) SearchClients(q string) ([]Client, error) {
	rows, err := r.db.Query(`SELECT id, full_name, phone, email FROM clients WHERE full_name LIKE ? ORDER BY full_name ASC LIMIT 20`, "%"+q+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	clients := []Client{}
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.FullName, &c.Phone, &c.Email); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// --- Contratos y activaciones ---

func (r *Repository) CreateContract(clientID, planID int, startDate, endDate string) (int, error) {
	res, err := r.db.Exec(`INSERT INTO membership_contracts (client_id, plan_id, start_date, end_date) VALUES (?,?,?,?)`,
		clientID, planID, startDate, endDate)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func (r *Repository) CreateActivation(clientID, contractID int, startDate, endDate string, finalPrice float64) (int, error) {
	res, err := r.db.Exec(`INSERT INTO active_memberships (client_id, contract_id, start_date, end_date, final_price, status) VALUES (?,?,?,?,?,'Activa')`,
		clientID, contractID, startDate, endDate, finalPrice)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

// GetActiveMembership carga la activación junto con titular y tipo.
func (r *Repository) GetActiveMembership(id int) (*MembershipInfo, error) {
	row := r.db.QueryRow(`SELECT am.id, am.client_id, am.contract_id, c.full_name, mc.plan_id, p.name, am.start_date, am.end_date, am.final_price, am.status, am.qr_path FROM active_memberships am JOIN clients c ON am.client_id = c.id JOIN membership_contracts mc ON am.contract_id = mc.id JOIN membership_plans p ON mc.plan_id = p.id WHERE am.id = ? LIMIT 1`, id)
	var m MembershipInfo
	if err := row.Scan(&m.ID, &m.ClientID, &m.ContractID, &m.Holder, &m.PlanID, &m.PlanName, &m.StartDate, &m.EndDate, &m.FinalPrice, &m.Status, &m.QRPath); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// MarkExpired marca la activación anterior al renovar.
func (r *Repository) MarkExpired(id int) error {
	_, err := r.db.Exec(`UPDATE active_memberships SET status='Vencida' WHERE id=?`, id)
	return err
}

func (r *Repository) UpdateQRPath(id int, path string) error {
	_, err := r.db.Exec(`UPDATE active_memberships SET qr_path=? WHERE id=?`, path, id)
	return err
}

// --- Integrantes ---

func (r *Repository) AddFamilyMembers(activeID int, names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, err := r.db.Exec(`INSERT INTO family_members (active_membership_id, full_name) VALUES (?,?)`, activeID, name); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) GetFamilyMembers(activeID int) ([]string, error) {
	rows, err := r.db.Query(`SELECT full_name FROM family_members WHERE active_membership_id=? ORDER BY id ASC`, activeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (r *Repository) DeleteFamilyMembers(activeID int) error {
	_, err := r.db.Exec(`DELETE FROM family_members WHERE active_membership_id=?`, activeID)
	return err
}

// --- Pagos ---

func (r *Repository) RecordPayment(activeID, methodID int, amount float64) error {
	_, err := r.db.Exec(`INSERT INTO payments (active_membership_id, payment_method_id, amount) VALUES (?,?,?)`,
		activeID, methodID, amount)
	return err
}

func (r *Repository) GetPaymentMethodName(id int) (string, error) {
	row := r.db.QueryRow(`SELECT name FROM payment_methods WHERE id=? LIMIT 1`, id)
	var name string
	if err := row.Scan(&name); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return name, nil
}

// --- Registro de entradas ---

func (r *Repository) RecordEntry(activeID int, area string) (int, error) {
	res, err := r.db.Exec(`INSERT INTO entry_log (active_membership_id, access_area) VALUES (?,?)`, activeID, area)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

// GetEntriesByDate devuelve una página del historial de accesos de un
// día, junto con el total para paginar.
func (r *Repository) GetEntriesByDate(date string, limit, offset int) ([]Entry, int, error) {
	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM entry_log WHERE DATE(entered_at) = ?`, date).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(`SELECT e.id, e.active_membership_id, e.access_area, c.full_name, e.entered_at FROM entry_log e JOIN active_memberships am ON e.active_membership_id = am.id JOIN clients c ON am.client_id = c.id WHERE DATE(e.entered_at) = ? ORDER BY e.entered_at DESC LIMIT ? OFFSET ?`, date, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActiveID, &e.Area, &e.Holder, &e.EnteredAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
