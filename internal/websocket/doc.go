// Package websocket streams server messages to a single peer over
// gorilla/websocket. It backs the count-up endpoint: a handler upgrades the
// request, wraps the connection in a Stream and sends JSON messages until the
// animation ends or the peer disconnects.
//
//	up := websocket.NewUpgrader(cfg.WebSocket, cfg.Security.AllowedOrigins, logger, nil)
//	conn, err := up.Upgrade(w, r, nil)
//	s := websocket.NewStream(r.Context(), websocket.NewConnectionWrapper(conn), 0, logger)
//	s.Start()
//	defer s.Close()
//	_ = s.Send("frame", frame)
package websocket
