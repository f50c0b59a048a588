// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/hashlight/chain/app/services/node/handlers/v1/public"
	"github.com/hashlight/chain/foundation/blockchain/state"
	"github.com/hashlight/chain/foundation/events"
	"github.com/hashlight/chain/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)

	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/supply", pbl.Supply)
	app.Handle(http.MethodGet, version, "/accounts/list", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/accounts/list/:account", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/blocks/list/:from/:to", pbl.BlocksByHeight)
	app.Handle(http.MethodGet, version, "/mining/signal", pbl.SignalMining)

	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", pbl.Mempool)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodGet, version, "/tx/proof/:height/:tx", pbl.Proof)
	app.Handle(http.MethodGet, version, "/tx/inclusion/:height/:tx", pbl.Inclusion)

	app.Handle(http.MethodPost, version, "/witness/submit", pbl.SubmitWitness)
	app.Handle(http.MethodGet, version, "/witness/list/:tx", pbl.Witness)
	app.Handle(http.MethodGet, version, "/bloom/:height", pbl.Bloom)
}
