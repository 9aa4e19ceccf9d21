package urlapi

import (
	"fmt"
	"strings"

	"go.vocdoni.io/dvote/httprouter"
	"go.vocdoni.io/dvote/httprouter/bearerstdapi"
	"go.vocdoni.io/dvote/log"
	"go.vocdoni.io/dvote/metrics"

	"github.com/bricesuazo/eboto-sub001/ballot"
	"github.com/bricesuazo/eboto-sub001/config"
	"github.com/bricesuazo/eboto-sub001/database"
	"github.com/bricesuazo/eboto-sub001/notifications"
	"github.com/bricesuazo/eboto-sub001/scheduler"
)

const API_VERSION string = "v1"

// VOTER_MAX_REQUESTS bounds the request quota of one voter token.
const VOTER_MAX_REQUESTS = 2 << 10

type URLAPI struct {
	BaseRoute string

	config       *config.API
	router       *httprouter.HTTProuter
	api          *bearerstdapi.BearerStandardAPI
	metricsagent *metrics.Agent
	db           database.Database
	ballots      *ballot.Service
	sched        *scheduler.Scheduler
	notifier     notifications.Notifier
}

func NewURLAPI(router *httprouter.HTTProuter,
	cfg *config.API, metricsAgent *metrics.Agent) (*URLAPI, error) {
	if router == nil {
		return nil, fmt.Errorf("httprouter is nil")
	}
	baseRoute := cfg.Route
	if len(baseRoute) == 0 || baseRoute[0] != '/' {
		return nil, fmt.Errorf("invalid base route (%s), it must start with /", baseRoute)
	}
	// Remove trailing slash
	if len(baseRoute) > 0 {
		baseRoute = strings.TrimSuffix(baseRoute, "/")
	}
	baseRoute += "/" + API_VERSION
	urlapi := URLAPI{
		config:       cfg,
		BaseRoute:    baseRoute,
		router:       router,
		metricsagent: metricsAgent,
	}
	log.Infof("url api available with baseRoute %s", baseRoute)
	urlapi.registerMetrics()
	var err error
	urlapi.api, err = bearerstdapi.NewBearerStandardAPI(router, baseRoute)
	if err != nil {
		return nil, err
	}
	urlapi.api.SetAdminToken(cfg.AdminToken)

	return &urlapi, nil
}

// EnableElectionHandlers wires the persistence, ballot, scheduler and
// notification collaborators and registers every route.
func (u *URLAPI) EnableElectionHandlers(db database.Database, ballots *ballot.Service,
	sched *scheduler.Scheduler, notifier notifications.Notifier) error {
	if db == nil {
		return fmt.Errorf("database is nil")
	}
	if ballots == nil {
		return fmt.Errorf("ballot service is nil")
	}
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}
	if notifier == nil {
		return fmt.Errorf("notifier is nil")
	}
	u.db = db
	u.ballots = ballots
	u.sched = sched
	u.notifier = notifier

	// Register voter tokens from the DB
	if err := u.syncVoterTokens(); err != nil {
		return fmt.Errorf("could not sync voter tokens with db: %v", err)
	}
	if err := u.enableAdminHandlers(); err != nil {
		return err
	}
	if err := u.enablePublicHandlers(); err != nil {
		return err
	}
	return u.rearmSchedules()
}

func (u *URLAPI) syncVoterTokens() error {
	tokens, err := u.db.GetVoterTokensList()
	if err != nil {
		return err
	}
	for _, token := range tokens {
		u.api.AddAuthToken(token, VOTER_MAX_REQUESTS)
	}
	log.Infof("registered %d voter tokens from database", len(tokens))
	return nil
}

func (u *URLAPI) RegisterToken(token string, requests int64) {
	log.Debugf("register auth token %s", token)
	u.api.AddAuthToken(token, requests)
}

func (u *URLAPI) RevokeToken(token string) {
	log.Debugf("revoke auth token %s", token)
	u.api.DelAuthToken(token)
}
