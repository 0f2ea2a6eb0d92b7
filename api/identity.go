package api

import (
	"context"
	"net/http"

	"github.com/warp/pnl-ledger/aggregate"
)

// AccountHeader carries the caller's account id. It is set by whatever
// fronts this service (gateway, signer, session layer) and trusted as-is.
const AccountHeader = "X-Account-ID"

type accountKey struct{}

// Identity copies the AccountHeader value into the request context
// unchanged. An empty header means no identity.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(AccountHeader); id != "" {
			r = r.WithContext(WithAccount(r.Context(), aggregate.AccountID(id)))
		}
		next.ServeHTTP(w, r)
	})
}

// WithAccount returns a context carrying account.
func WithAccount(ctx context.Context, account aggregate.AccountID) context.Context {
	return context.WithValue(ctx, accountKey{}, account)
}

// AccountFromContext returns the caller's account, if any.
func AccountFromContext(ctx context.Context) (aggregate.AccountID, bool) {
	id, ok := ctx.Value(accountKey{}).(aggregate.AccountID)
	return id, ok && id != ""
}
