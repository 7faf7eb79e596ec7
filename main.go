// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

// The authz service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	nats "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/visdata/authz-service/pkg/authorizer"
	"github.com/visdata/authz-service/pkg/constants"
	"github.com/visdata/authz-service/pkg/fga"
)

const (
	errKey            = "error"
	defaultListenPort = "8080"
	// gracefulShutdownSeconds should be higher than NATS client
	// request timeout, and lower than the pod or liveness probe's
	// terminationGracePeriodSeconds.
	gracefulShutdownSeconds = 25
)

var (
	logger          *slog.Logger
	environment     constants.Environment
	natsURL         string
	natsConn        *nats.Conn
	jetstreamConn   jetstream.JetStream
	cacheBucketName string
	cacheBucket     jetstream.KeyValue
	handler         *HandlerService
)

func init() {
	natsURL = os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://nats:4222"
	}
	cacheBucketName = os.Getenv("CACHE_BUCKET")
	if cacheBucketName == "" {
		cacheBucketName = constants.KVBucketNameDecisionCache
	}
	environment = constants.ParseEnvironment(os.Getenv("VISDATA_ENVIRONMENT"))
}

// main parses optional flags and starts the NATS subscribers.
func main() {
	// Allow overriding the port by environmental variable as well as command
	// line argument.
	defaultPort := os.Getenv("PORT")
	if defaultPort == "" {
		defaultPort = defaultListenPort
	}
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "health checks port")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	logOptions := &slog.HandlerOptions{}

	// Optional debug logging.
	if os.Getenv("DEBUG") != "" || *debug {
		logOptions.Level = slog.LevelDebug
		logOptions.AddSource = true
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, logOptions))
	slog.SetDefault(logger)

	// Connect to the OpenFGA backend and resolve the store and model.
	fgaConfig := fga.ConfigFromEnv()
	adapter, err := fga.NewAdapter(fgaConfig.APIURL, fgaConfig.StoreID, fgaConfig.ModelID, fgaConfig.Timeout)
	if err != nil {
		logger.With(errKey, err).Error("error creating OpenFGA client")
		os.Exit(1)
	}
	gateway := fga.NewGateway(adapter, fgaConfig, logger)

	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), time.Minute)
	storeID, modelID, err := gateway.Bootstrap(bootstrapCtx)
	cancelBootstrap()
	if err != nil {
		logger.With(errKey, err).Error("error bootstrapping OpenFGA store")
		os.Exit(1)
	}
	logger.With(
		"url", fgaConfig.APIURL,
		"store_id", storeID,
		"model_id", modelID,
		"enabled", fgaConfig.Enabled,
	).Info("OpenFGA client ready")

	// Support GET/POST monitoring "ping".
	http.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		// This always returns as long as the service is still running. As this
		// endpoint is expected to be used as a Kubernetes liveness check, this
		// service must likewise self-detect non-recoverable errors and
		// self-terminate.
		_, err := fmt.Fprintf(w, "OK\n")
		if err != nil {
			logger.With(errKey, err).Error("error writing to response writer")
		}
	})

	// Basic health check.
	http.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if natsConn == nil {
			http.Error(w, "no NATS connection", http.StatusServiceUnavailable)
			return
		}
		if !natsConn.IsConnected() || natsConn.IsDraining() {
			http.Error(w, "NATS connection not ready", http.StatusServiceUnavailable)
			return
		}
		_, err := fmt.Fprintf(w, "OK\n")
		if err != nil {
			logger.With(errKey, err).Error("error writing to response writer")
		}
	})

	// Add an http listener for health checks. This server does NOT participate
	// in the graceful shutdown process; we want it to stay up until the process
	// is killed, to avoid liveness checks failing during the graceful shutdown.
	var addr string
	if *bind == "*" {
		addr = ":" + *port
	} else {
		addr = *bind + ":" + *port
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           http.DefaultServeMux,
		ReadHeaderTimeout: 3 * time.Second,
	}
	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.With(errKey, err).Error("http listener error")
			os.Exit(1)
		}
	}()

	// Create a wait group which is used to wait while draining (gracefully
	// closing) a connection.
	gracefulCloseWG := sync.WaitGroup{}

	// Support graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	// Create NATS connection.
	gracefulCloseWG.Add(1)
	natsConn, err = nats.Connect(
		natsURL,
		nats.DrainTimeout(gracefulShutdownSeconds*time.Second),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				logger.With(errKey, err, "subject", s.Subject, "queue", s.Queue).Error("async NATS error")
			} else {
				logger.With(errKey, err).Error("async NATS error outside subscription")
			}
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if ctx.Err() != nil {
				// If our parent background context has already been canceled, this is
				// a graceful shutdown. Decrement the wait group but do not exit, to
				// allow other graceful shutdown steps to complete.
				gracefulCloseWG.Done()
				return
			}
			// Otherwise, this handler means that max reconnect attempts have been
			// exhausted.
			logger.Error("NATS max-reconnects exhausted; connection closed")
			// Send a synthetic interrupt and give any graceful-shutdown tasks 5
			// seconds to clean up.
			done <- os.Interrupt
			time.Sleep(5 * time.Second)
			// Exit with an error instead of decrementing the wait group.
			os.Exit(1)
		}),
	)
	if err != nil {
		logger.With(errKey, err).Error("error creating NATS client")
		os.Exit(1)
	}
	logger.With("url", natsURL).Info("NATS client created")

	jetstreamConn, err = jetstream.New(natsConn)
	if err != nil {
		logger.With(errKey, err).Error("error creating JetStream client")
		os.Exit(1)
	}
	cacheBucket, err = bindCacheBucket(ctx, jetstreamConn)
	if err != nil {
		logger.With(errKey, err).Error("error binding to cache bucket")
		os.Exit(1)
	}

	// Wire the handler service.
	checker := authorizer.NewChecker(gateway, fgaConfig.Enabled, fgaConfig.ListOnlyPermitted, logger)
	handler = &HandlerService{
		checker: checker,
		roles:   authorizer.NewRoleService(gateway, logger),
		groups:  authorizer.NewGroupService(gateway, logger),
		orgs:    authorizer.NewOrgService(gateway, logger),
		cache:   &decisionCache{bucket: cacheBucket},
	}

	if err = createQueueSubscriptions(); err != nil {
		logger.With(errKey, err).Error("error creating queue subscriptions")
		os.Exit(1)
	}

	// This next line blocks until SIGINT or SIGTERM is received, or NATS disconnects.
	<-done

	// Cancel the background context.
	cancel()

	// Drain the connection, which will drain all subscriptions, then close the
	// connection when complete.
	if !natsConn.IsClosed() && !natsConn.IsDraining() {
		logger.Info("draining NATS connections")
		if err := natsConn.Drain(); err != nil {
			logger.With(errKey, err).Error("error draining NATS connection")
			os.Exit(1)
		}
	}

	// Wait for the graceful shutdown steps to complete.
	gracefulCloseWG.Wait()

	// Immediately close the HTTP server after graceful shutdown has finished.
	if err = httpServer.Close(); err != nil {
		logger.With(errKey, err).Error("http listener error on close")
	}
}

// bindCacheBucket binds to the decision cache bucket, creating it with a
// TTL when it does not exist yet.
func bindCacheBucket(ctx context.Context, js jetstream.JetStream) (jetstream.KeyValue, error) {
	bucket, err := js.KeyValue(ctx, cacheBucketName)
	if err == nil {
		return bucket, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, err
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: cacheBucketName,
		TTL:    time.Hour,
	})
}

// createQueueSubscriptions creates queue subscriptions for the NATS subjects.
func createQueueSubscriptions() (err error) {
	subscriptions := map[string]func(INatsMsg) error{
		constants.AccessCheckSubject: handler.accessCheckHandler,
		constants.RoleUpdateSubject:  handler.roleUpdateHandler,
		constants.GroupUpdateSubject: handler.groupUpdateHandler,
		constants.OrgUpdateSubject:   handler.orgUpdateHandler,
	}
	for subject, handle := range subscriptions {
		prefixedSubject := fmt.Sprintf("%s%s", environment, subject)
		handle := handle
		_, err = natsConn.QueueSubscribe(prefixedSubject, constants.AuthzQueue, func(m *nats.Msg) {
			//nolint:errcheck // handler errors are logged where they occur
			_ = handle(&NatsMsg{Msg: m})
		})
		if err != nil {
			logger.With(errKey, err, "subject", prefixedSubject).Error("error subscribing to NATS subject")
			return err
		}
		logger.With("subject", prefixedSubject).Info("subscribed to NATS subject")
	}
	return nil
}
