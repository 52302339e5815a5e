package usercontext

// Locals keys shared between middleware and controllers.
const (
	KeyUserContext   = "USER_CONTEXT"
	KeyFromProtected = "from_protected"
	KeyIsAdmin       = "isAdmin"
)
