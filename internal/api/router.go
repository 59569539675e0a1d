package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "grimoire/internal/api/context"
	"grimoire/internal/api/handlers"
	"grimoire/internal/api/middleware"
	"grimoire/internal/pkg/errors"
	"grimoire/internal/platform/models"
)

type Dependencies struct {
	AuthHandler      *handlers.AuthHandler
	OrgHandler       *handlers.OrgHandler
	SessionHandler   *handlers.SessionHandler
	CharacterHandler *handlers.CharacterHandler
	ItemHandler      *handlers.ItemHandler
	BoardHandler     *handlers.BoardHandler
	AuditHandler     *handlers.AuditHandler
	HealthHandler    *handlers.HealthHandler
	AuthMiddleware   *middleware.AuthMiddleware
	RateLimiter      *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/health", wrap(deps.HealthHandler.Check))

	authMid := deps.AuthMiddleware
	limit := deps.RateLimiter.Limit

	// Authentication
	router.POST("/api/v1/auth/register", chain(deps.AuthHandler.Register, limit("auth")))
	router.POST("/api/v1/auth/login", chain(deps.AuthHandler.Login, limit("auth")))
	router.POST("/api/v1/auth/refresh", chain(deps.AuthHandler.Refresh, limit("auth")))
	router.POST("/api/v1/auth/logout", chain(deps.AuthHandler.Logout, limit("auth")))
	router.POST("/api/v1/auth/logout-all", chain(deps.AuthHandler.LogoutAll, limit("auth")))
	router.GET("/api/v1/auth/me", chain(deps.AuthHandler.Me, authMid.Handle))
	router.PATCH("/api/v1/users/:user_id/role",
		chain(deps.AuthHandler.Promote, authMid.Handle, requireGlobalAdmin, limit("api_write")))

	// Organizations
	router.POST("/api/v1/organizations",
		chain(deps.OrgHandler.Create, authMid.Handle, limit("api_write")))
	router.GET("/api/v1/me/organizations",
		chain(deps.OrgHandler.ListMine, authMid.Handle, limit("api_read")))
	router.GET("/api/v1/organizations/:org_id",
		chain(deps.OrgHandler.Get, authMid.Handle, limit("api_read")))
	router.PATCH("/api/v1/organizations/:org_id",
		chain(deps.OrgHandler.Update, authMid.Handle, limit("api_write")))
	router.DELETE("/api/v1/organizations/:org_id",
		chain(deps.OrgHandler.Delete, authMid.Handle, requireGlobalAdmin, limit("api_write")))
	router.POST("/api/v1/organizations/:org_id/join",
		chain(deps.OrgHandler.Join, authMid.Handle, limit("api_write")))
	router.POST("/api/v1/organizations/:org_id/memberships/:membership_id/approve",
		chain(deps.OrgHandler.ApproveMembership, authMid.Handle, limit("api_write")))
	router.PATCH("/api/v1/organizations/:org_id/memberships/role",
		chain(deps.OrgHandler.ChangeRole, authMid.Handle, limit("api_write")))
	router.GET("/api/v1/organizations/:org_id/audit",
		chain(deps.AuditHandler.List, authMid.Handle, limit("api_read")))

	// Item templates (organization scope)
	router.POST("/api/v1/organizations/:org_id/item-templates",
		chain(deps.ItemHandler.CreateTemplate, authMid.Handle, limit("api_write")))
	router.GET("/api/v1/organizations/:org_id/item-templates",
		chain(deps.ItemHandler.ListTemplates, authMid.Handle, limit("api_read")))

	// Sessions
	router.POST("/api/v1/organizations/:org_id/jdrs",
		chain(deps.SessionHandler.Create, authMid.Handle, limit("api_write")))
	router.GET("/api/v1/organizations/:org_id/jdrs",
		chain(deps.SessionHandler.List, authMid.Handle, limit("api_read")))
	router.GET("/api/v1/jdrs/:session_id",
		chain(deps.SessionHandler.Get, authMid.Handle, limit("api_read")))
	router.PATCH("/api/v1/jdrs/:session_id",
		chain(deps.SessionHandler.Update, authMid.Handle, limit("api_write")))
	router.DELETE("/api/v1/jdrs/:session_id",
		chain(deps.SessionHandler.Delete, authMid.Handle, limit("api_write")))
	router.POST("/api/v1/jdrs/:session_id/join",
		chain(deps.SessionHandler.Join, authMid.Handle, limit("api_write")))
	router.POST("/api/v1/jdrs/:session_id/memberships/:membership_id/approve",
		chain(deps.SessionHandler.ApprovePlayer, authMid.Handle, limit("api_write")))
	router.GET("/api/v1/jdrs/:session_id/players",
		chain(deps.SessionHandler.ListPlayers, authMid.Handle, limit("api_read")))

	// Characters
	router.POST("/api/v1/jdrs/:session_id/characters",
		chain(deps.CharacterHandler.Create, authMid.Handle, limit("api_write")))
	router.GET("/api/v1/jdrs/:session_id/characters",
		chain(deps.CharacterHandler.List, authMid.Handle, limit("api_read")))
	router.PATCH("/api/v1/jdrs/:session_id/characters/:character_id",
		chain(deps.CharacterHandler.Update, authMid.Handle, limit("api_write")))
	router.PATCH("/api/v1/jdrs/:session_id/characters/:character_id/mj",
		chain(deps.CharacterHandler.UpdateAsMJ, authMid.Handle, limit("api_write")))
	router.POST("/api/v1/jdrs/:session_id/characters/:character_id/gold",
		chain(deps.CharacterHandler.AdjustGold, authMid.Handle, limit("api_write")))
	router.GET("/api/v1/jdrs/:session_id/characters/:character_id/inventory",
		chain(deps.ItemHandler.ListInventory, authMid.Handle, limit("api_read")))

	// Items
	router.POST("/api/v1/jdrs/:session_id/items",
		chain(deps.ItemHandler.CreateItem, authMid.Handle, limit("api_write")))
	router.GET("/api/v1/jdrs/:session_id/items",
		chain(deps.ItemHandler.ListItems, authMid.Handle, limit("api_read")))
	router.POST("/api/v1/jdrs/:session_id/items/give",
		chain(deps.ItemHandler.GiveItem, authMid.Handle, limit("api_write")))

	// Board
	router.GET("/api/v1/jdrs/:session_id/board",
		chain(deps.BoardHandler.Get, authMid.Handle, limit("api_read")))
	router.PATCH("/api/v1/jdrs/:session_id/board",
		chain(deps.BoardHandler.UpdateConfig, authMid.Handle, limit("api_write")))
	router.POST("/api/v1/jdrs/:session_id/board/elements",
		chain(deps.BoardHandler.AddElement, authMid.Handle, limit("api_write")))
	router.PATCH("/api/v1/jdrs/:session_id/board/elements/:element_id",
		chain(deps.BoardHandler.UpdateElement, authMid.Handle, limit("api_write")))
	router.DELETE("/api/v1/jdrs/:session_id/board/elements/:element_id",
		chain(deps.BoardHandler.DeleteElement, authMid.Handle, limit("api_write")))

	return router
}

// chain composes middlewares right to left around the handler.
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}

// requireGlobalAdmin gates the administrative-global routes. Organization
// role checks stay inside the services; this only covers the global scope.
func requireGlobalAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(apiContext.User).(*models.User)
		if !ok || user.GlobalRole != models.GlobalRoleAdmin {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Admin privileges required", nil)
			return
		}
		next(w, r)
	}
}
