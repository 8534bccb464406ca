// Command stompbroker-server is a thin demo binary that wires the
// broker core to a real net/http + gorilla/websocket upgrade handler.
// It exists to show an embedding host how the pieces fit together; the
// WebSocket server itself stays out of the importable core per the
// broker's scope.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"stompbroker"
	"stompbroker/internal/config"
	"stompbroker/internal/logger"
	"stompbroker/internal/transport/wsconn"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	addr := os.Getenv("STOMPBROKER_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	path := os.Getenv("STOMPBROKER_PATH")
	if path == "" {
		path = "/stomp"
	}

	cfg := config.Config{
		Server: addr,
		Path:   path,
		Debug:  resolveDebug(),
	}
	if sx, sy, ok := parseHeartbeatEnv(); ok {
		cfg.Heartbeat = [2]int{sx, sy}
	}

	b := stompbroker.New(cfg)

	b.Events().On("connected", func(args ...interface{}) {
		fmt.Printf("[stompbroker-server] session %v connected\n", args[0])
	})
	b.Events().On("disconnected", func(args ...interface{}) {
		fmt.Printf("[stompbroker-server] session %v disconnected\n", args[0])
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			fmt.Printf("[stompbroker-server] upgrade failed: %v\n", err)
			return
		}
		id := b.HandleConnection(wsconn.New(conn))
		fmt.Printf("[stompbroker-server] session %s opened from %s\n", id, r.RemoteAddr)
	})

	fmt.Printf("[stompbroker-server] listening on %s%s\n", addr, path)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("[stompbroker-server] %v", err)
	}
}

// resolveDebug picks a JSONL file sink under STOMPBROKER_LOG_DIR when
// that variable is set (falling back to the console sink if the file
// cannot be opened), and the console sink otherwise. The console sink
// colorizes only when stdout is a terminal.
func resolveDebug() config.Debug {
	if dir := os.Getenv("STOMPBROKER_LOG_DIR"); dir != "" {
		fileLogger, err := logger.NewFileLogger(dir)
		if err != nil {
			fmt.Printf("[stompbroker-server] falling back to console logging: %v\n", err)
			return logger.NewConsoleDebug()
		}
		return fileLogger.Debug
	}
	return logger.NewConsoleDebug()
}

func parseHeartbeatEnv() (sx, sy int, ok bool) {
	sxStr := os.Getenv("STOMPBROKER_HEARTBEAT_SX")
	syStr := os.Getenv("STOMPBROKER_HEARTBEAT_SY")
	if sxStr == "" || syStr == "" {
		return 0, 0, false
	}
	sx, errX := strconv.Atoi(sxStr)
	sy, errY := strconv.Atoi(syStr)
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return sx, sy, true
}
