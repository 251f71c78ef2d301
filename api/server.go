// Package api implements the node's local HTTP surface: three endpoints
// translating requests into ChainEngine calls, kept intentionally thin.
// It follows apiserver/server/routes.go's makeHandler/addRoutes shape and
// apiserver/controllers's handler-returns-(interface{}, *HandlerError)
// convention, built on github.com/gorilla/mux.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/daglabs/chaincore/chainerrors"
	"github.com/daglabs/chaincore/chainlog"
	"github.com/daglabs/chaincore/engine"
)

// HandlerError is an error with an HTTP status code attached, following
// apiserver/utils.HandlerError.
type HandlerError struct {
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
}

func (e *HandlerError) Error() string { return e.Message }

// NewHandlerError constructs a HandlerError.
func NewHandlerError(code int, message string) *HandlerError {
	return &HandlerError{ErrorCode: code, Message: message}
}

// Publisher republishes newly created blocks and accepted local
// transactions over gossip. Satisfied by gossip.LoopbackBus.
type Publisher interface {
	PublishBlock(blockJSON engine.BlockJSON) error
	PublishTransaction(txJSON engine.TransactionJSON) error
}

// Server is the local HTTP interface.
type Server struct {
	engine *engine.Engine
	pub    Publisher
	log    *chainlog.Logger
	router *mux.Router
}

// New builds a Server wired to eng, republishing via pub.
func New(eng *engine.Engine, pub Publisher, log *chainlog.Logger) *Server {
	s := &Server{engine: eng, pub: pub, log: log, router: mux.NewRouter()}
	s.addRoutes()
	return s
}

// Router exposes the underlying http.Handler for use with http.Server.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) addRoutes() {
	s.router.HandleFunc("/blockchain", s.makeHandler(s.getBlockchain)).Methods("GET")
	s.router.HandleFunc("/unadded-transactions", s.makeHandler(s.getUnaddedTrans)).Methods("GET")
	s.router.HandleFunc("/transactions", s.makeHandler(s.addTrans)).Methods("POST")
}

func (s *Server) makeHandler(h func(r *http.Request) (interface{}, *HandlerError)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response, hErr := h(r)
		if hErr != nil {
			s.log.Warnf("request %s %s: %s", r.Method, r.URL.Path, hErr.Message)
			w.WriteHeader(hErr.ErrorCode)
			_ = json.NewEncoder(w).Encode(hErr)
			return
		}
		if str, ok := response.(string); ok {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = fmt.Fprint(w, str)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}
}

// getBlockchain implements GET_BLOCKCHAIN: the full serialized snapshot.
func (s *Server) getBlockchain(_ *http.Request) (interface{}, *HandlerError) {
	return s.engine.Snapshot(nil), nil
}

// getUnaddedTrans implements GET_UNADDED_TRANS: the pool contents under
// transactions_not_yet_added.
func (s *Server) getUnaddedTrans(_ *http.Request) (interface{}, *HandlerError) {
	return s.engine.PoolSnapshot(), nil
}

// addTransRequest is the payload for ADD_TRANS: a list of transaction
// dicts.
type addTransRequest []engine.TransactionJSON

// addTrans implements ADD_TRANS: per-transaction human-readable status
// lines joined by newlines.
func (s *Server) addTrans(r *http.Request) (interface{}, *HandlerError) {
	var reqs addTransRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		return nil, NewHandlerError(http.StatusBadRequest, fmt.Sprintf("couldn't parse request body: %s", err))
	}

	var lines []string
	for _, j := range reqs {
		tx := engine.FromTransactionJSON(j)
		blocks, err := s.engine.SubmitTransaction(tx)
		switch {
		case err == nil:
			if len(blocks) > 0 {
				lines = append(lines, fmt.Sprintf("accepted %s:%d, mined %d block(s)", tx.UserID, tx.TransNo, len(blocks)))
				for _, b := range blocks {
					if pubErr := s.pub.PublishBlock(engine.ToBlockJSON(b)); pubErr != nil {
						s.log.Warnf("publishing block %s: %s", b.BlockHash, pubErr)
					}
				}
			} else {
				lines = append(lines, fmt.Sprintf("accepted %s:%d", tx.UserID, tx.TransNo))
				if pubErr := s.pub.PublishTransaction(engine.ToTransactionJSON(tx)); pubErr != nil {
					s.log.Warnf("publishing transaction %s:%d: %s", tx.UserID, tx.TransNo, pubErr)
				}
			}
		case isAlreadyAdded(err):
			lines = append(lines, fmt.Sprintf("rejected %s:%d: already added", tx.UserID, tx.TransNo))
		default:
			lines = append(lines, fmt.Sprintf("rejected %s:%d: %s", tx.UserID, tx.TransNo, err))
		}
	}

	return strings.Join(lines, "\n"), nil
}

func isAlreadyAdded(err error) bool {
	return errors.Is(err, chainerrors.ErrAlreadyAdded)
}
