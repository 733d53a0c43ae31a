package main

import (
	"flag"
	"log"
	"os"

	"github.com/df07/go-volume-raymarcher/pkg/loaders"
	"github.com/df07/go-volume-raymarcher/web/server"
)

func main() {
	port := flag.Int("port", 8080, "Port to serve on")
	volumePath := flag.String("volume", "", "Sparse volume file to preview (ground scene only when empty)")
	flag.Parse()

	var vf *loaders.VolumeFile
	if *volumePath != "" {
		var err error
		if vf, err = loaders.LoadVolumeFile(*volumePath); err != nil {
			log.Printf("Error loading volume: %v", err)
			os.Exit(1)
		}
		log.Printf("Loaded %d grid(s) from %s", len(vf.Grids), vf.Path)
	}

	webServer := server.NewServer(*port, vf)

	log.Printf("Volume Raymarcher Web Server")
	log.Printf("Try http://localhost:%d/api/render?scene=ground", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
