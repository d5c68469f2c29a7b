package domain

// Canonical sales record column names.
const (
	ColDate           = "date"
	ColProductID      = "product_id"
	ColQuantity       = "quantity"
	ColUnitPrice      = "unit_price"
	ColDiscount       = "discount"
	ColTotalSales     = "total_sales"
	ColGrossSales     = "gross_sales"
	ColDiscountAmount = "discount_amount"
	ColProfitMargin   = "profit_margin"
)

// RequiredColumns are the columns an extraction adapter must provide.
// total_sales is optional; the transform derives it when absent.
var RequiredColumns = []string{ColDate, ColProductID, ColQuantity, ColUnitPrice, ColDiscount}
