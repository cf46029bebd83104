package receipts

import "club-backend/whatsapp"

func membershipFixture() whatsapp.MembershipReceipt {
	return whatsapp.MembershipReceipt{
		ID:            42,
		Holder:        "Juan Perez",
		PlanName:      "Familiar",
		StartDate:     "2025-01-01",
		EndDate:       "2025-01-31",
		Amount:        450,
		PaymentMethod: "Efectivo",
		Members:       []string{"Maria Perez", "Luis Perez"},
	}
}

func rentFixture(kind string) whatsapp.RentReceipt {
	return whatsapp.RentReceipt{
		ID:         7,
		ClientName: "Ana Torres",
		RoomNumber: "12",
		CheckIn:    "2025-02-01",
		CheckOut:   "2025-02-03",
		Total:      1200,
		Type:       kind,
	}
}
