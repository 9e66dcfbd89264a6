package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"users-svc/internal/application/ports"
	domain "users-svc/internal/domain/user"
	"users-svc/internal/interface/api/rest/dto/user"
	"users-svc/internal/interface/api/rest/middleware"
	"users-svc/internal/interface/api/rest/validator"
)

type UserController struct {
	userService  ports.UserService
	queryService ports.UserQueryService
	logger       *zap.Logger
}

// NewUserController mounts the users API on r. The two create routes are
// public, everything else goes through auth.
func NewUserController(
	r gin.IRouter,
	userService ports.UserService,
	queryService ports.UserQueryService,
	logger *zap.Logger,
	auth gin.HandlerFunc,
) *UserController {
	uc := &UserController{
		userService:  userService,
		queryService: queryService,
		logger:       logger,
	}

	g := r.Group(RouteUsers)
	g.POST(RouteCreate, uc.CreateUserHandler)
	g.POST(RouteCreateGoogle, uc.CreateGoogleUserHandler)

	p := g.Group("", auth)
	p.POST(RouteSearch, uc.SearchUsersHandler)
	p.GET(RouteAll, uc.GetUsersHandler)
	p.POST(RouteByEmail, uc.GetUserByEmailHandler)
	p.GET(RouteByUsername, uc.GetUserByUsernameHandler)
	p.POST(RouteExistsByEmail, uc.ExistsByEmailHandler)
	p.POST(RouteExistsByUsername, uc.ExistsByUsernameHandler)
	p.GET(RouteUser, uc.GetUserHandler)
	p.PATCH(RouteUser, uc.UpdateUserHandler)
	p.PATCH(RouteDeactivate, uc.DeactivateUserHandler)

	return uc
}

// writeError is the single place where error kinds become status codes.
func (uc *UserController) writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		body := gin.H{"error": domain.Message(err)}
		if f := domain.Field(err); f != "" {
			body["field"] = f
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": domain.Message(err)})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": domain.Message(err)})
	default:
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"error": "failed to " + op},
		)
		uc.logger.Error(op+" error",
			zap.Error(err),
			zap.String("request_id", c.GetString(middleware.CtxRequestID)),
		)
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid request body",
		"details": validator.ToDetails(err),
	})
}

func (uc *UserController) userID(c *gin.Context) (domain.UUID, bool) {
	ok, id := validator.IsUUID(c.Param("user_id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "user_id must be a valid UUID"},
		)
	}
	return id, ok
}

func (uc *UserController) CreateUserHandler(c *gin.Context) {
	uc.create(c, http.StatusCreated, uc.userService.RegisterLocal, "register user")
}

func (uc *UserController) CreateGoogleUserHandler(c *gin.Context) {
	uc.create(c, http.StatusOK, uc.userService.UpsertGoogle, "upsert google user")
}

func (uc *UserController) create(
	c *gin.Context,
	status int,
	run func(ctx context.Context, in domain.Registration) (*domain.User, error),
	op string,
) {
	var req user.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	in, err := user.ToRegistration(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "birthDate"})
		return
	}

	u, err := run(c.Request.Context(), in)
	if err != nil {
		uc.writeError(c, op, err)
		return
	}

	c.JSON(status, user.ToResponseUser(*u))
}

func (uc *UserController) SearchUsersHandler(c *gin.Context) {
	users, err := uc.queryService.FindAll(c.Request.Context())
	if err != nil {
		uc.writeError(c, "get users", err)
		return
	}

	resp := user.ToResponseUsers(users)
	c.JSON(http.StatusOK, user.SearchResponse{Users: resp, Total: len(resp)})
}

func (uc *UserController) GetUsersHandler(c *gin.Context) {
	users, err := uc.queryService.FindAll(c.Request.Context())
	if err != nil {
		uc.writeError(c, "get users", err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponseUsers(users))
}

func (uc *UserController) GetUserHandler(c *gin.Context) {
	id, ok := uc.userID(c)
	if !ok {
		return
	}

	u, err := uc.queryService.FindByID(c.Request.Context(), id)
	uc.writeUser(c, "get a user", u, err)
}

func (uc *UserController) GetUserByEmailHandler(c *gin.Context) {
	var req user.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := uc.queryService.FindByEmail(c.Request.Context(), req.Email)
	uc.writeUser(c, "get a user", u, err)
}

func (uc *UserController) GetUserByUsernameHandler(c *gin.Context) {
	u, err := uc.queryService.FindByUsername(c.Request.Context(), c.Query("username"))
	uc.writeUser(c, "get a user", u, err)
}

// writeUser answers a lookup, absent records become 404.
func (uc *UserController) writeUser(c *gin.Context, op string, u *domain.User, err error) {
	if err != nil {
		uc.writeError(c, op, err)
		return
	}
	if u == nil {
		c.JSON(
			http.StatusNotFound,
			gin.H{"error": domain.MsgUserNotFound},
		)
		return
	}

	c.JSON(http.StatusOK, user.ToResponseUser(*u))
}

func (uc *UserController) ExistsByEmailHandler(c *gin.Context) {
	var req user.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	exists, err := uc.queryService.ExistsByEmail(c.Request.Context(), req.Email)
	if err != nil {
		uc.writeError(c, "check email", err)
		return
	}

	c.JSON(http.StatusOK, user.ExistsResponse{Exists: exists})
}

func (uc *UserController) ExistsByUsernameHandler(c *gin.Context) {
	var req user.UsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	exists, err := uc.queryService.ExistsByUsername(c.Request.Context(), req.Username)
	if err != nil {
		uc.writeError(c, "check username", err)
		return
	}

	c.JSON(http.StatusOK, user.ExistsResponse{Exists: exists})
}

func (uc *UserController) UpdateUserHandler(c *gin.Context) {
	id, ok := uc.userID(c)
	if !ok {
		return
	}

	var req user.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	patch, err := user.ToPatch(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "birthDate"})
		return
	}

	u, err := uc.userService.UpdatePartial(c.Request.Context(), id, patch)
	if err != nil {
		uc.writeError(c, "update a user", err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponseUser(*u))
}

func (uc *UserController) DeactivateUserHandler(c *gin.Context) {
	id, ok := uc.userID(c)
	if !ok {
		return
	}

	if err := uc.userService.Deactivate(c.Request.Context(), id); err != nil {
		uc.writeError(c, "deactivate user", err)
		return
	}

	c.Status(http.StatusNoContent)
}
