package dto

type AdjustStockInput struct {
	SKU            string
	Location       string
	QuantityChange int
	MovementType   string // 'stock_in', 'pick', 'adjustment', 'channel_pull'
	Reason         string
	ReferenceID    string
	ReferenceType  string
	UserID         string
}

type StockInInput struct {
	Barcode        string
	SKU            string
	TargetLocation string
	Quantity       int
}
