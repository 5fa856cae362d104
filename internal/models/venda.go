package models

type VendaStatus string

const (
	VendaPendente  VendaStatus = "pendente"
	VendaPaga      VendaStatus = "paga"
	VendaCancelada VendaStatus = "cancelada"
)
