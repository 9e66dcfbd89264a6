package rest

const (
	RouteUsers = "/legendme/users"

	// relative to RouteUsers
	RouteCreate           = "/create"
	RouteCreateGoogle     = "/create/google-user"
	RouteSearch           = "/search"
	RouteAll              = "/all"
	RouteByEmail          = "/by-email"
	RouteByUsername       = "/by-username"
	RouteExistsByEmail    = "/exists-by-email"
	RouteExistsByUsername = "/exists-by-username"
	RouteUser             = "/:user_id"
	RouteDeactivate       = RouteUser + "/deactivate"

	// ops
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
