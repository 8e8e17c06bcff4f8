package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hellojuantu/pvz-5v5/server/srv"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	store := srv.LoadStore(filepath.Join(dataDir, "state.json"))
	signer, err := srv.LoadSigner(dataDir)
	if err != nil {
		log.Fatalf("identity key: %v", err)
	}

	hub := srv.NewHub(store, signer)
	hub.Rehydrate()
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("[Server] listening on :%s (data dir %s)", port, dataDir)
	if err := server.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
