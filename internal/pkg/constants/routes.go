package constants

// Static route constants
const (
	HomeRoute      = "/"
	PricingRoute   = "/pricing"
	SuccessRoute   = "/success"
	LoginRoute     = "/login"
	RegisterRoute  = "/register"
	LogoutRoute    = "/logout"
	DashboardRoute = "/dashboard"
)
