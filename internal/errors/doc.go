// Package errors renders API failures.
//
// Lower layers classify their own failures with AppError (storage, parsing,
// network, config) so the handler can pick a status without knowing them.
//
// Handlers either return an *APIError or pass any error to
// ErrorHandler.HandleError, which maps it to an RFC 7807 problem document:
//
//	context errors        504 /errors/timeout
//	*APIError             its own status, type chosen by ErrorCode
//	validator errors      400 /errors/validation with per-field entries
//	*AppError             by Type (PARSING 422, NETWORK 502, others 500)
//	anything else         500 /errors/internal
package errors
