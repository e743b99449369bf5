package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/gsinghjay/mvp-qr-gen-sub001/cmd"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/api"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/config"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/encoder"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/generator"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/models"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/monitor"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/repository"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/services"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/workers"
)

// RunServerCmd représente la commande 'run-server' de Cobra.
// C'est le point d'entrée pour lancer le serveur de l'application.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Lance le serveur API de codes QR et les processus de fond.",
	Long: `Cette commande initialise la base de données, configure les APIs,
démarre les workers asynchrones pour les scans et le moniteur de destinations,
puis lance le serveur HTTP.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Échec du chargement de la configuration : %v", err)
		}

		// Initialiser la base de données
		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatalf("Échec de la connexion à la base de données : %v", err)
		}

		// Migration automatique des modèles
		if err := db.AutoMigrate(&models.QRCode{}, &models.ScanEvent{}); err != nil {
			log.Fatalf("Échec de la migration de la base de données : %v", err)
		}

		// Initialiser les repositories
		qrRepo := repository.NewQRCodeRepository(db)
		scanRepo := repository.NewScanEventRepository(db)
		log.Println("Repositories initialisés.")

		// Initialiser les services métiers
		qrService := services.NewQRService(qrRepo, scanRepo,
			generator.NewIdentifierGenerator(), encoder.NewEncoder(),
			services.QRServiceConfig{
				ResolverBase:     cfg.ResolverBase(),
				MaxContentLength: cfg.QR.MaxContentLength,
				MaxURLLength:     cfg.QR.MaxURLLength,
			})
		log.Println("Services métiers initialisés.")

		// Initialiser le channel des scans et lancer les workers.
		scanRecords := make(chan models.ScanRecord, cfg.Analytics.BufferSize)
		workers.StartScanWorkers(cfg.Analytics.WorkerCount, scanRecords, scanRepo)
		log.Printf("Channel de scans initialisé avec un buffer de %d. %d worker(s) démarré(s).",
			cfg.Analytics.BufferSize, cfg.Analytics.WorkerCount)

		resolver := services.NewRedirectResolver(qrRepo, scanRecords, 0)

		// Initialiser et lancer le moniteur de destinations.
		monitorInterval := time.Duration(cfg.Monitor.IntervalMinutes) * time.Minute
		destMonitor := monitor.NewDestinationMonitor(qrRepo, monitorInterval)
		go destMonitor.Start()
		log.Printf("Moniteur de destinations démarré avec un intervalle de %v.", monitorInterval)

		// Configurer le routeur Gin et les handlers API.
		router := gin.Default()
		api.SetupRoutes(router, qrService, resolver)
		log.Println("Routes API configurées.")

		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:    serverAddr,
			Handler: router,
		}

		// Démarrer le serveur Gin dans une goroutine pour ne pas bloquer.
		go func() {
			log.Printf("Démarrage du serveur sur %s", serverAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Échec du démarrage du serveur : %v", err)
			}
		}()

		// Gérer l'arrêt propre du serveur (graceful shutdown).
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		<-quit
		log.Println("Signal d'arrêt reçu. Arrêt du serveur...")

		// Fermer le channel pour que les workers drainent les scans restants.
		close(scanRecords)
		log.Println("Arrêt en cours... Donnez un peu de temps aux workers pour finir.")
		time.Sleep(5 * time.Second)

		log.Println("Serveur arrêté proprement.")
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
