package jobqueue

import (
	"database/sql"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert agrega una tarea en estado pending.
func (r *Repository) Insert(service Kind, payload []byte) (int, error) {
	res, err := r.db.Exec(`INSERT INTO job_queue (service, payload, status) VALUES (?, ?, 'pending')`,
		string(service), payload)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// SelectEligible devuelve las tareas pending o failed por debajo del
// tope de intentos, en orden de creación.
func (r *Repository) SelectEligible(maxAttempts int) ([]Job, error) {
	rows, err := r.db.Query(`SELECT id, service, payload, status, attempts, last_attempt_at, error_message, created_at FROM job_queue WHERE (status = 'pending' OR status = 'failed') AND attempts < ? ORDER BY created_at ASC`, maxAttempts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	jobs := []Job{}
	for rows.Next() {
		var j Job
		var service string
		if err := rows.Scan(&j.ID, &service, &j.Payload, &j.Status, &j.Attempts, &j.LastAttemptAt, &j.ErrorMessage, &j.CreatedAt); err != nil {
			return nil, err
		}
		j.Service = Kind(service)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// MarkProcessing transiciona a processing e incrementa attempts.
func (r *Repository) MarkProcessing(id int) error {
	_, err := r.db.Exec(`UPDATE job_queue SET status = 'processing', last_attempt_at = NOW(), attempts = attempts + 1 WHERE id = ?`, id)
	return err
}

func (r *Repository) MarkCompleted(id int) error {
	_, err := r.db.Exec(`UPDATE job_queue SET status = 'completed' WHERE id = ?`, id)
	return err
}

func (r *Repository) MarkFailed(id int, errMsg string) error {
	_, err := r.db.Exec(`UPDATE job_queue SET status = 'failed', error_message = ? WHERE id = ?`, errMsg, id)
	return err
}

// MarkDead es terminal: la tarea no vuelve a ser elegible.
func (r *Repository) MarkDead(id int, errMsg string) error {
	_, err := r.db.Exec(`UPDATE job_queue SET status = 'dead', error_message = ? WHERE id = ?`, errMsg, id)
	return err
}
