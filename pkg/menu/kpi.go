package menu

// KPI is one card of the KPI view.
type KPI struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit,omitempty"`
	Formula string  `json:"formula"`
}

// StaticKPIs are the reference figures shown on the KPI view. They are not
// computed from results.
func StaticKPIs() []KPI {
	return []KPI{
		{Code: "RCP", Name: "Consumption ratio per passenger", Value: 1.47, Formula: "Quantity_Consumed / Passenger_Count"},
		{Code: "CTD", Name: "Total waste cost", Value: 450, Unit: "MXN", Formula: "Σ(Quantity_Returned × Unit_Cost)"},
		{Code: "CPP", Name: "Cost per passenger", Value: 85.50, Unit: "MXN", Formula: "Σ(Quantity_Consumed × Unit_Cost) / Passenger_Count"},
		{Code: "PUT", Name: "Product utilization rate", Value: 88, Unit: "%", Formula: "Quantity_Consumed / (Consumed + Returned) × 100"},
	}
}
