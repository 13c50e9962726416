package routes

import (
	"errors"
	"net/http"

	structValidator "github.com/go-playground/validator/v10"

	"github.com/haguru/choji/internal/apperror"
	"github.com/haguru/choji/internal/interfaces"
	"github.com/haguru/choji/internal/models"
	"github.com/haguru/choji/internal/models/dto"
	"github.com/haguru/choji/internal/serializer"
)

// CookieSettings names the session cookie and whether it is HTTPS only.
type CookieSettings struct {
	Name   string
	Secure bool
}

type Route struct {
	Metrics       interfaces.Metrics
	UserService   interfaces.UserService
	RecipeService interfaces.RecipeService
	Sessions      interfaces.SessionManager
	Logger        interfaces.Logger
	Cookie        CookieSettings
	validator     *structValidator.Validate
}

// NewRoute creates a new Route instance.
func NewRoute(metrics interfaces.Metrics, userService interfaces.UserService,
	recipeService interfaces.RecipeService, sessions interfaces.SessionManager,
	validator *structValidator.Validate, logger interfaces.Logger, cookie CookieSettings,
) *Route {
	return &Route{
		Metrics:       metrics,
		UserService:   userService,
		RecipeService: recipeService,
		Sessions:      sessions,
		Logger:        logger,
		Cookie:        cookie,
		validator:     validator,
	}
}

// RegisterMetrics registers every metric the handlers record.
func RegisterMetrics(metrics interfaces.Metrics) {
	metrics.RegisterCounterVec(HTTPRequestsTotal, HTTPRequestsTotalHelp, HTTPRequestsTotalLabels)
	metrics.RegisterHistogramVec(
		HTTPRequestDurationSeconds,
		HTTPRequestDurationSecondsHelp,
		RequestDurationSecondsBuckets,
		HTTPRequestDurationSecondsLabels)
	metrics.RegisterCounter(SignupSuccessTotal, SignupSuccessTotalHelp)
	metrics.RegisterCounter(LoginSuccessTotal, LoginSuccessTotalHelp)
	metrics.RegisterCounter(LoginFailedTotal, LoginFailedTotalHelp)
	metrics.RegisterCounter(RecipesCreatedTotal, RecipesCreatedTotalHelp)
	metrics.RegisterCounter(SessionsEndedTotal, SessionsEndedTotalHelp)
}

// Signup registers a user, logs them in, and returns the user with recipes.
func (r *Route) Signup(w http.ResponseWriter, req *http.Request) (any, int) {
	signupRequest := &dto.UserSignupRequestDTO{}
	if err := r.decode(w, req, signupRequest); err != nil {
		return r.fail(req, err)
	}
	if err := r.validator.Struct(signupRequest); err != nil {
		return r.fail(req, validationError(err))
	}

	user, err := r.UserService.RegisterUser(req.Context(), signupInput(signupRequest))
	if err != nil {
		return r.fail(req, err)
	}

	if err := r.startSession(w, req, user.ID); err != nil {
		return r.fail(req, err)
	}

	r.Metrics.IncCounter(SignupSuccessTotal)
	return serializer.User(*user, nil, true), http.StatusCreated
}

// Login authenticates the credentials and starts a fresh session.
func (r *Route) Login(w http.ResponseWriter, req *http.Request) (any, int) {
	loginRequest := &dto.LoginRequestDTO{}
	if err := r.decode(w, req, loginRequest); err != nil {
		r.Metrics.IncCounter(LoginFailedTotal)
		return r.fail(req, err)
	}
	// Missing credentials are indistinguishable from wrong ones.
	if err := r.validator.Struct(loginRequest); err != nil {
		r.Metrics.IncCounter(LoginFailedTotal)
		return r.fail(req, errors.Join(apperror.ErrAuthentication, err))
	}

	user, err := r.UserService.AuthenticateUser(req.Context(), loginRequest.Username, loginRequest.Password)
	if err != nil {
		r.Metrics.IncCounter(LoginFailedTotal)
		return r.fail(req, err)
	}

	if err := r.startSession(w, req, user.ID); err != nil {
		return r.fail(req, err)
	}

	r.Metrics.IncCounter(LoginSuccessTotal)
	return r.userWithRecipes(req, user)
}

// Logout ends the current session. Logging out twice fails the second time.
func (r *Route) Logout(w http.ResponseWriter, req *http.Request) (any, int) {
	ended, err := r.Sessions.End(req.Context(), r.sessionToken(req))
	if err != nil {
		return r.fail(req, err)
	}
	if !ended {
		return r.fail(req, apperror.ErrAuthentication)
	}

	http.SetCookie(w, r.expiredCookie())
	r.Metrics.IncCounter(SessionsEndedTotal)
	return nil, http.StatusNoContent
}

// CheckSession returns the logged in user with their recipes.
func (r *Route) CheckSession(w http.ResponseWriter, req *http.Request) (any, int) {
	userID, err := r.requireUser(req)
	if err != nil {
		return r.fail(req, err)
	}

	user, err := r.UserService.GetUserByID(req.Context(), userID)
	if err != nil {
		return r.fail(req, err)
	}
	return r.userWithRecipes(req, user)
}

// ListRecipes returns every recipe with its owner.
func (r *Route) ListRecipes(w http.ResponseWriter, req *http.Request) (any, int) {
	if _, err := r.requireUser(req); err != nil {
		return r.fail(req, err)
	}

	recipes, err := r.RecipeService.ListRecipes(req.Context())
	if err != nil {
		return r.fail(req, err)
	}
	return serializer.Recipes(recipes), http.StatusOK
}

// CreateRecipe stores a recipe owned by the logged in user. The session is
// checked before the body is read.
func (r *Route) CreateRecipe(w http.ResponseWriter, req *http.Request) (any, int) {
	userID, err := r.requireUser(req)
	if err != nil {
		return r.fail(req, err)
	}

	recipeRequest := &dto.RecipeCreateRequestDTO{}
	if err := r.decode(w, req, recipeRequest); err != nil {
		return r.fail(req, err)
	}
	if err := r.validator.Struct(recipeRequest); err != nil {
		return r.fail(req, validationError(err))
	}

	created, err := r.RecipeService.CreateRecipe(req.Context(), recipeInput(recipeRequest), userID)
	if err != nil {
		return r.fail(req, err)
	}

	r.Metrics.IncCounter(RecipesCreatedTotal)
	return serializer.Recipe(created.Recipe, created.Owner, true), http.StatusCreated
}

func (r *Route) userWithRecipes(req *http.Request, user *models.User) (any, int) {
	recipes, err := r.RecipeService.ListRecipesByOwner(req.Context(), user.ID)
	if err != nil {
		return r.fail(req, err)
	}
	return serializer.User(*user, recipes, true), http.StatusOK
}

func signupInput(in *dto.UserSignupRequestDTO) interfaces.SignupInput {
	return interfaces.SignupInput{
		Username: in.Username,
		Password: in.Password,
		ImageURL: in.ImageURL,
		Bio:      in.Bio,
	}
}

func recipeInput(in *dto.RecipeCreateRequestDTO) interfaces.RecipeInput {
	return interfaces.RecipeInput{
		Title:             in.Title,
		Instructions:      in.Instructions,
		MinutesToComplete: in.MinutesToComplete,
	}
}
