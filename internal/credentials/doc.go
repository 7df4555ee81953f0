// Package credentials resolves source and target API credentials from
// conventional environment variables so the dedicated configuration keys stay
// optional.
package credentials
