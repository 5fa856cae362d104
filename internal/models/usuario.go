package models

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleVendedor Role = "vendedor"
)

type Credentials struct {
	Login    *string `json:"login"`
	Password *string `json:"password"`
}

type Usuario struct {
	ID       string
	Login    string
	Hash     string
	Role     Role
	Nome     string
	Email    string
	Telefone string
}
