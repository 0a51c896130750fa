// Package respserver provides the RESP protocol server for MistKV.
package respserver

import (
	"github.com/mistkv/mistkv-go/internal/command"
	"github.com/mistkv/mistkv-go/internal/resp"
)

// execute runs one validated command against the store and builds the
// reply value. Replies always use the bulk-string form, never "+"
// simple strings, to keep the output protocol uniform.
func (s *Server) execute(cmd command.Command) resp.Value {
	switch cmd.Kind {
	case command.KindPing:
		return resp.String("PONG")

	case command.KindEcho:
		return resp.String(cmd.Text)

	case command.KindGet:
		value, ok := s.store.Get(cmd.Key)
		if !ok {
			return resp.Nil()
		}
		return value

	case command.KindSet:
		s.store.Set(cmd.Key, cmd.Value, cmd.ExpiresAt)
		return resp.String("OK")

	default:
		// Parse never produces other kinds.
		return resp.Nil()
	}
}

// verbName returns the metrics label for a command kind.
func verbName(k command.Kind) string {
	switch k {
	case command.KindPing:
		return "ping"
	case command.KindEcho:
		return "echo"
	case command.KindGet:
		return "get"
	case command.KindSet:
		return "set"
	default:
		return "unknown"
	}
}
