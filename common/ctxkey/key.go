package ctxkey

const (
	// Id is the authenticated user id (uuid string) for the current request.
	// Set in: middleware.UserAuth after the bearer token verifies.
	// Read in: controller.ExecuteStoredRequest for ownership-scoped lookups.
	Id = "id"

	// RequestId is a per-request unique identifier, also returned as a response header.
	// Set in: middleware.RequestId.
	RequestId = "X-Apiprobe-Request-Id"

	// TokenExpiresAt is the unix expiry of the verified bearer token.
	// Set in: middleware.UserAuth.
	TokenExpiresAt = "token_expires_at"
)
