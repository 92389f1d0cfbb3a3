// Package ctxkeys names the fiber.Ctx locals shared by middlewares and handlers.
package ctxkeys

const (
	// UserIDKey holds the authenticated user's hex ObjectID.
	UserIDKey = "userID"
	// CurrentUserKey holds the *auth.User loaded for the request.
	CurrentUserKey = "currentUser"
	// ParentCtxKey carries the request context into WebSocket handlers.
	ParentCtxKey = "parentCtx"
)
