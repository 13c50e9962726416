package routes

var (
	RequestDurationSecondsBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
)

const (
	// API route constants
	MetricsRouteAPI      = "GET /metrics"
	SignupRouteAPI       = "POST /signup"
	LoginRouteAPI        = "POST /login"
	LogoutRouteAPI       = "DELETE /logout"
	CheckSessionRouteAPI = "GET /check_session"
	ListRecipesRouteAPI  = "GET /recipes"
	CreateRecipeRouteAPI = "POST /recipes"

	// Handler names used as metric labels
	SignupHandler       = "signup"
	LoginHandler        = "login"
	LogoutHandler       = "logout"
	CheckSessionHandler = "check_session"
	ListRecipesHandler  = "list_recipes"
	CreateRecipeHandler = "create_recipe"

	// Content-Type constants
	ContentType     = "Content-Type"
	ContentTypeJson = "application/json"

	// MaxRequestBodyBytes bounds every JSON request body.
	MaxRequestBodyBytes = 1 << 20

	// Public error messages
	ErrUnauthorized         = "401: Unauthorized"
	ErrUnprocessableEntity  = "422: Unprocessable Entity"
	ErrUsernameTaken        = "422: Username is already taken"
	ErrInternalServerError  = "internal server error"
	ErrInvalidContentType   = "content-Type must be application/json"
	ErrInvalidRequestBody   = "invalid request body"
	ErrFailedToEncode       = "failed to encode response"
	ErrFailedToStartSession = "failed to start session"

	// Log messages
	MsgRequestRejected = "Request rejected"
	MsgRequestFailed   = "Request failed"

	// metrics constants
	HTTPRequestsTotal              = "http_requests_total"
	HTTPRequestsTotalHelp          = "Total number of API requests by handler and status code"
	HTTPRequestDurationSeconds     = "http_request_duration_seconds"
	HTTPRequestDurationSecondsHelp = "Duration of API requests in seconds by handler"
	SignupSuccessTotal             = "signup_success_total"
	SignupSuccessTotalHelp         = "Total number of successful signup requests"
	LoginSuccessTotal              = "login_success_total"
	LoginSuccessTotalHelp          = "Total number of successful login requests"
	LoginFailedTotal               = "login_failed_total"
	LoginFailedTotalHelp           = "Total number of failed login requests"
	RecipesCreatedTotal            = "recipes_created_total"
	RecipesCreatedTotalHelp        = "Total number of recipes created"
	SessionsEndedTotal             = "sessions_ended_total"
	SessionsEndedTotalHelp         = "Total number of sessions ended by logout"
)

// labels for the request vectors
var (
	HTTPRequestsTotalLabels          = []string{"handler", "code"}
	HTTPRequestDurationSecondsLabels = []string{"handler"}
)
