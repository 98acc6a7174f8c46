// internal/directory/models.go
package directory

// ClientIDArgs is the request body shared by all directory operations.
type ClientIDArgs struct {
	ClientID string `json:"client_id"`
}

// clientRecord is the full stored row for one client.
type clientRecord struct {
	ClientID        string
	Name            string
	Address         string
	Email           string
	MonthlyIncome   float64
	MonthlyExpenses float64
	Debt            float64
	LatePayments    int
	HasBankruptcy   bool
}
