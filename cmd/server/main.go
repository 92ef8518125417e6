package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"customer-segmentation/internal/api"
	"customer-segmentation/internal/config"
	"customer-segmentation/internal/logger"
	"customer-segmentation/internal/models"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	cfg := config.Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			log.Fatal("failed to load config", "path", path, "error", err)
		}
	}

	var personas []models.Persona
	var hierarchy models.Hierarchy
	if cfg.DataGeneration.UsePersonas {
		personas, err = config.LoadPersonas(cfg.DataGeneration.PersonasFile)
		if err != nil {
			log.Fatal("failed to load personas", "error", err)
		}
		hierarchy, err = config.LoadHierarchy(cfg.DataGeneration.HierarchyFile)
		if err != nil {
			log.Fatal("failed to load hierarchy", "error", err)
		}
	}

	pipeline := api.NewPipeline(cfg, personas, hierarchy, log)
	handler := api.NewHandler(pipeline, log)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Customer Segmentation API is Running"))
	})

	handler.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8001"
	}

	log.Info("starting segmentation server", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal("server failed to start", "error", err)
	}
}
