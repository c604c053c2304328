package main

import (
	"encoding/json"
	"fmt"

	// math/rand is fine here: query selection does not need a
	// cryptographically secure source
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/tendermint/tendermint/libs/log"
	jsonrpc "github.com/tendermint/tendermint/rpc/jsonrpc/types"
)

const (
	sendTimeout = 10 * time.Second
	// the jsonrpc server closes idle connections without pings
	pingPeriod = (30 * 9 / 10) * time.Second
)

// querier keeps N websocket connections to the target node and fires
// read-only queries at a fixed per-connection rate.
type querier struct {
	Target      string
	Rate        int
	Connections int
	MaxID       uint64
	conns       []*websocket.Conn
	connsBroken []bool
	startingWg  sync.WaitGroup
	endingWg    sync.WaitGroup
	stopped     bool

	logger log.Logger
}

func newQuerier(target string, connections, rate int, maxID uint64) *querier {
	return &querier{
		Target:      target,
		Rate:        rate,
		Connections: connections,
		MaxID:       maxID,
		conns:       make([]*websocket.Conn, connections),
		connsBroken: make([]bool, connections),
		logger:      log.NewNopLogger(),
	}
}

// SetLogger lets you set your own logger
func (q *querier) SetLogger(l log.Logger) {
	q.logger = l
}

// Start opens N = `q.Connections` connections to the target and creates
// read and write goroutines for each connection.
func (q *querier) Start() error {
	q.stopped = false

	rand.Seed(time.Now().Unix())

	for i := 0; i < q.Connections; i++ {
		c, _, err := connect(q.Target)
		if err != nil {
			return err
		}
		q.conns[i] = c
	}

	q.startingWg.Add(q.Connections)
	q.endingWg.Add(2 * q.Connections)
	for i := 0; i < q.Connections; i++ {
		go q.sendLoop(i)
		go q.receiveLoop(i)
	}

	q.startingWg.Wait()

	return nil
}

// Stop closes the connections.
func (q *querier) Stop() {
	q.stopped = true
	q.endingWg.Wait()
	for _, c := range q.conns {
		c.Close()
	}
}

// receiveLoop drains responses so the server-side write buffer never
// fills up.
func (q *querier) receiveLoop(connIndex int) {
	c := q.conns[connIndex]
	defer q.endingWg.Done()
	for {
		_, _, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				q.logger.Error(
					fmt.Sprintf("failed to read response on conn %d", connIndex),
					"err",
					err,
				)
			}
			return
		}
		if q.stopped || q.connsBroken[connIndex] {
			return
		}
	}
}

// sendLoop fires queries at the configured rate.
func (q *querier) sendLoop(connIndex int) {
	started := false
	// Close the starting waitgroup, in the event that this fails to start
	defer func() {
		if !started {
			q.startingWg.Done()
		}
	}()
	c := q.conns[connIndex]

	c.SetPingHandler(func(message string) error {
		err := c.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(sendTimeout))
		if err == websocket.ErrCloseSent {
			return nil
		} else if e, ok := err.(net.Error); ok && e.Temporary() {
			return nil
		}
		return err
	})

	logger := q.logger.With("addr", c.RemoteAddr())

	pingsTicker := time.NewTicker(pingPeriod)
	queryTicker := time.NewTicker(1 * time.Second)
	defer func() {
		pingsTicker.Stop()
		queryTicker.Stop()
		q.endingWg.Done()
	}()

	for {
		select {
		case <-queryTicker.C:
			startTime := time.Now()
			endTime := startTime.Add(time.Second)
			numSent := q.Rate
			if !started {
				q.startingWg.Done()
				started = true
			}

			now := time.Now()
			for i := 0; i < q.Rate; i++ {
				method, params := q.generateQuery()
				paramsJSON, err := json.Marshal(params)
				if err != nil {
					logger.Error("failed to encode params", "err", err)
					return
				}

				c.SetWriteDeadline(now.Add(sendTimeout))
				err = c.WriteJSON(jsonrpc.RPCRequest{
					JSONRPC: "2.0",
					ID:      jsonrpc.JSONRPCStringID("rpc-bench"),
					Method:  method,
					Params:  json.RawMessage(paramsJSON),
				})
				if err != nil {
					err = errors.Wrap(err,
						fmt.Sprintf("query send failed on connection #%d", connIndex))
					q.connsBroken[connIndex] = true
					logger.Error(err.Error())
					return
				}

				// cache the time.Now() reads to save time.
				if i%5 == 0 {
					now = time.Now()
					if now.After(endTime) {
						// Plus one accounts for sending this query
						numSent = i + 1
						break
					}
				}
			}

			timeToSend := time.Since(startTime)
			logger.Info(fmt.Sprintf("sent %d queries", numSent), "took", timeToSend)
			if timeToSend < 1*time.Second {
				time.Sleep(time.Second - timeToSend)
			}

		case <-pingsTicker.C:
			c.SetWriteDeadline(time.Now().Add(sendTimeout))
			if err := c.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				err = errors.Wrap(err,
					fmt.Sprintf("failed to write ping message on conn #%d", connIndex))
				logger.Error(err.Error())
				q.connsBroken[connIndex] = true
			}
		}

		if q.stopped {
			// To cleanly close a connection, a client should send a close
			// frame and wait for the server to close the connection.
			c.SetWriteDeadline(time.Now().Add(sendTimeout))
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				err = errors.Wrap(err,
					fmt.Sprintf("failed to write close message on conn #%d", connIndex))
				logger.Error(err.Error())
				q.connsBroken[connIndex] = true
			}

			return
		}
	}
}

func connect(host string) (*websocket.Conn, *http.Response, error) {
	u := url.URL{Scheme: "ws", Host: host, Path: "/websocket"}
	return websocket.DefaultDialer.Dial(u.String(), nil)
}

// generateQuery picks a random read-only route, weighting the list
// endpoints higher since they do the most marshaling work.
func (q *querier) generateQuery() (string, map[string]interface{}) {
	id := rand.Uint64()%q.MaxID + 1

	switch rand.Intn(6) {
	case 0:
		return "validators", map[string]interface{}{}
	case 1:
		return "active_set", map[string]interface{}{}
	case 2:
		return "proposals", map[string]interface{}{}
	case 3:
		return "proposal", map[string]interface{}{"id": id}
	case 4:
		return "round", map[string]interface{}{"id": id}
	default:
		return "metrics", map[string]interface{}{"label": ""}
	}
}
