package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"barberly/config"
	barberlycron "barberly/cron"
	"barberly/database"
	deliveryRepoPkg "barberly/database/repository/delivery"
	reservationRepoPkg "barberly/database/repository/reservation"
	serviceRepoPkg "barberly/database/repository/service"
	waitinglistRepoPkg "barberly/database/repository/waitinglist"
	"barberly/handlers"
	"barberly/models"
	"barberly/resilience"
	"barberly/routes"
	"barberly/services/booking"
	"barberly/services/calendar"
	"barberly/services/events"
	"barberly/services/notification"
	"barberly/services/realtime"
	"barberly/services/waitinglist"
	"barberly/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitReminderQueue()
	utils.FirebaseInit()

	cloudinaryStorageService, err := utils.Cloudinary()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize cloudinary storage service: %v", err)
	}

	// Repositories.
	reservationRepo := reservationRepoPkg.NewMongoReservationRepo()
	waitingListRepo := waitinglistRepoPkg.NewMongoWaitingListRepo()
	deliveryRepo := deliveryRepoPkg.NewMongoDeliveryRepo()
	serviceRepo := serviceRepoPkg.NewMongoServiceRepo()

	for name, ensure := range map[string]func() error{
		"reservations": reservationRepo.EnsureIndexes,
		"waiting_list": waitingListRepo.EnsureIndexes,
		"deliveries":   deliveryRepo.EnsureIndexes,
	} {
		if err := ensure(); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure %s indexes: %v", name, err)
		}
	}

	// One breaker per external dependency, shared process-wide.
	onStateChange := func(name string, from, to resilience.State) {
		logger.Warn("circuit breaker state change",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	emailBreaker := resilience.NewBreaker(resilience.BreakerConfig{
		Name:             "email",
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		OnStateChange:    onStateChange,
	})
	pushBreaker := resilience.NewBreaker(resilience.BreakerConfig{
		Name:             "push",
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		OnStateChange:    onStateChange,
	})
	storageBreaker := resilience.NewBreaker(resilience.BreakerConfig{
		Name:             "storage",
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          time.Minute,
		OnStateChange:    onStateChange,
	})

	// Event bus and its subscribers.
	bus := events.NewBus(logger)
	hub := realtime.NewHub(logger)

	bookingEngine := &booking.DefaultEngine{
		Repo:     reservationRepo,
		Services: serviceRepo,
		Bus:      bus,
		Logger:   logger,
	}

	calendarService := &calendar.Service{
		Storage: cloudinaryStorageService,
		Breaker: storageBreaker,
		Retry:   resilience.DefaultRetryConfig(),
		Logger:  logger,
	}

	dispatcher := &notification.Dispatcher{
		Email: notification.NewHTTPEmailSender(
			config.AppConfig.EmailAPIURL,
			config.AppConfig.EmailAPIKey,
			config.AppConfig.EmailFrom,
		),
		Push:         notification.NewFCMPushSender(utils.FCMClient),
		EmailBreaker: emailBreaker,
		PushBreaker:  pushBreaker,
		Retry:        resilience.DefaultRetryConfig(),

		Hub:          hub,
		Calendar:     calendarService,
		Reservations: reservationRepo,
		Services:     serviceRepo,
		Deliveries:   deliveryRepo,

		PublicBaseURL: config.AppConfig.PublicBaseURL,
		Logger:        logger,
	}

	waitingListEngine := &waitinglist.Engine{
		Repo:          waitingListRepo,
		Booking:       bookingEngine,
		Logger:        logger,
		WindowDays:    config.AppConfig.WaitingListWindowDays,
		PublicBaseURL: config.AppConfig.PublicBaseURL,
		Notifier:      dispatcher,
	}
	dispatcher.Promoter = waitingListEngine

	dispatcher.Register(bus)
	bus.Subscribe(models.EventReservationCreated, "realtime", hub.EventHandler())
	bus.Subscribe(models.EventReservationCompleted, "realtime", hub.EventHandler())

	// Background machinery: reminder worker and scheduled jobs.
	barberlycron.InitReminderWorker(dispatcher)

	scheduler := barberlycron.NewScheduler(logger)
	mustRegister(logger, scheduler, "@hourly", &barberlycron.WaitingListSweepJob{Engine: waitingListEngine})
	mustRegister(logger, scheduler, "0 8 * * *", &barberlycron.ReminderScanJob{
		Reservations: reservationRepo,
		Enqueue:      barberlycron.EnqueueReminder,
		Logger:       logger,
	})
	scheduler.Start()

	utils.RegisterBreakers(emailBreaker, pushBreaker, storageBreaker)
	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCacheClient(), utils.GetReminderQueueClient()},
		database.MongoClient,
	)

	// HTTP surface.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	handlerBundle := handlers.NewHandlerBundle(
		bookingEngine,
		waitingListEngine,
		hub,
		deliveryRepo,
	)
	routes.RegisterRoutes(router, handlerBundle)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	scheduler.Stop()
	bus.Wait()

	logger.Sugar().Info("main: server stopped gracefully")
}

func mustRegister(logger *zap.Logger, s *barberlycron.Scheduler, spec string, job barberlycron.Job) {
	if err := s.Register(spec, job); err != nil {
		logger.Sugar().Fatalf("main: failed to schedule %s: %v", job.Name(), err)
	}
}
