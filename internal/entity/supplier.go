package entity

// Supplier is a vendor that purchases reference by Name.
type Supplier struct {
	ID      string
	Name    string
	Phone   *string
	Email   *string
	Address *string
	Contact *string
}
