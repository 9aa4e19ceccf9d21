package pgsql

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.vocdoni.io/dvote/log"

	"github.com/bricesuazo/eboto-sub001/config"
	"github.com/bricesuazo/eboto-sub001/urlapi"
)

// notifier encapsulates the state of the listener connection.
type notifier struct {
	listener *pq.Listener
	failed   chan error
}

func NewNotifier(dbc *config.DB, channelName string) (*notifier, error) {
	notifier := &notifier{failed: make(chan error, 2)}
	listener := pq.NewListener(fmt.Sprintf("host=%s port=%d user=%s password=%s"+
		" dbname=%s sslmode=%s client_encoding=%s",
		dbc.Host, dbc.Port, dbc.User, dbc.Password, dbc.Dbname,
		dbc.Sslmode, "UTF8"), 2*time.Second, time.Minute, notifier.logListener)
	if err := listener.Listen(channelName); err != nil {
		listener.Close()
		log.Errorf("could not start voter token listener: %v", err)
		return nil, err
	}
	notifier.listener = listener
	return notifier, nil
}

// FetchNewTokens is the main loop of the notifier: it receives voter
// roll changes from the database trigger and keeps the API bearer token
// registry in sync, so every running instance accepts tokens of voters
// invited through any other instance.
func (n *notifier) FetchNewTokens(u *urlapi.URLAPI) {
	for {
		select {
		case e := <-n.listener.Notify:
			if e == nil {
				continue
			}
			delete, token := parseOperation(e.Extra)
			if token == "" {
				log.Warnf("ignoring malformed notification payload %q", e.Extra)
				continue
			}
			if !delete {
				u.RegisterToken(token, urlapi.VOTER_MAX_REQUESTS)
			} else {
				u.RevokeToken(token)
			}
			log.Debug("pgsql notified: ", e.Extra)
		case err := <-n.failed:
			log.Error(err)
		case <-time.After(time.Minute):
			go func() {
				err := n.listener.Ping()
				if err != nil {
					log.Error(err)
				}
			}()
		}
	}
}

var operationKeyRegexp = regexp.MustCompile(`KEY\s?=?\s?(.*)`)

func parseOperation(op string) (delete bool, token string) {
	if strings.Contains(op, "DELETE") {
		delete = true
	}
	m := operationKeyRegexp.FindStringSubmatch(op)
	if m == nil {
		return delete, ""
	}
	return delete, m[1]
}

func (n *notifier) logListener(event pq.ListenerEventType, err error) {
	if err != nil {
		log.Errorf("pgsql listener error: %s\n", err)
	}
	if event == pq.ListenerEventConnectionAttemptFailed {
		n.failed <- err
	}
}
