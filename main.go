package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"tuneful/backend/api/middleware"
	"tuneful/backend/api/route"
	"tuneful/backend/cache"
	"tuneful/backend/common"
	"tuneful/backend/model"
	"tuneful/backend/service"
	"tuneful/backend/storage"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	flag.Parse()
	if *common.PrintVersion {
		println(common.Version)
		os.Exit(0)
	}
	if *common.PrintHelpFlag {
		common.PrintHelp()
		os.Exit(0)
	}
	if err := common.InitConfig(); err != nil {
		common.FatalLog(err)
	}
	common.SetupGinLog()
	common.SysLog("Tuneful " + common.Version + " started")
	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := common.InitRedisClient(); err != nil {
		common.FatalLog(err)
	}
	defer func() {
		if err := common.CloseRedisClient(); err != nil {
			common.SysError("close redis: " + err.Error())
		}
	}()

	db, err := model.InitDB()
	if err != nil {
		common.FatalLog(err)
	}
	defer func() {
		if err := model.CloseDB(db); err != nil {
			common.SysError("close database: " + err.Error())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobs, err := storage.New(ctx, storage.Options{
		Backend:     common.BlobBackend,
		UploadPath:  common.UploadPath,
		S3Bucket:    common.S3Bucket,
		S3Region:    common.S3Region,
		S3Endpoint:  common.S3Endpoint,
		S3AccessKey: common.S3AccessKey,
		S3SecretKey: common.S3SecretKey,
	})
	if err != nil {
		common.FatalLog(err)
	}
	catalog := service.NewCatalog(blobs, cache.New(common.RDB, common.SongCacheTTL))

	engine := gin.New()
	if !common.TrustProxyHeaders {
		if err := engine.SetTrustedProxies(nil); err != nil {
			common.FatalLog(err)
		}
	}
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestId())
	engine.Use(middleware.AccessLog())
	engine.Use(middleware.CORS())
	if err := route.SetRouter(engine, db, catalog); err != nil {
		common.FatalLog(err)
	}
	engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			common.RespMessage(c, http.StatusNotFound, "API route not found")
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})

	port := strconv.Itoa(*common.Port)
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		common.SysLog("Server listening on port: " + port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		common.SysLog("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := group.Wait(); err != nil {
		common.SysError(err.Error())
	}
}
