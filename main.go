package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"chatrelay/data/database/mgo/mongoutil"
	"chatrelay/global"
	"chatrelay/logger"
	"chatrelay/middleware"
	midsec "chatrelay/middleware/security"
	chathttp "chatrelay/module/chat"
	"chatrelay/module/chat/message"
	chatsvc "chatrelay/module/chat/service"
	"chatrelay/module/group"
	"chatrelay/module/user"
	"chatrelay/service/chat"
	"chatrelay/service/chat/handlers"
	"chatrelay/service/mgo"
	"chatrelay/service/storage"
	"chatrelay/tools/ids"
	"chatrelay/tools/security"
)

func main() {
	cfg := global.Config()
	ids.SetNodeID(cfg.NodeID)

	// storage comes up in the background; the socket listener does not
	// wait, but the REST surface needs collections, so block briefly here
	mgo.StartAsync(context.Background(), &mongoutil.Config{
		Uri:      cfg.MongoURI,
		Database: cfg.MongoDatabase,
	})
	waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := mgo.WaitReady(waitCtx); err != nil {
		logger.Errorf("[boot] mongo not ready: %v", err)
		return
	}
	db := mgo.GetDB()

	var presence *storage.Presence
	if cfg.RedisAddr != "" {
		p, err := storage.NewPresence(storage.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Warnf("[boot] presence disabled: %v", err)
		} else {
			presence = p
			defer presence.Close()
		}
	}

	users := user.NewStore(db)
	groups := group.NewStore(db)
	messages := message.NewMongoStore(db)

	srv := chat.NewServer(chat.Options{
		NodeID:        fmt.Sprintf("relay-%d", cfg.NodeID),
		Store:         messages,
		Profiles:      users,
		Presence:      presence,
		SendQueueSize: cfg.SendQueueSize,
		FanoutWorkers: cfg.FanoutWorkers,
		FanoutQueue:   cfg.FanoutQueue,
	})
	defer srv.Close()
	handlers.RegisterAll(srv)

	jwtOpts := security.DefaultOptions(global.JWTSecret())
	userH := user.NewHandler(users, jwtOpts)
	groupH := group.NewHandler(groups, users)
	chatH := chathttp.NewHandler(chatsvc.NewChats(messages, groups, users))

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Origin())

	r.GET("/ws", srv.HandleWS)

	auth := middleware.RouteOpt{IsAuth: true, Auth: midsec.Options{JWT: jwtOpts}}
	open := middleware.RouteOpt{}

	middleware.POST(r, "/auth/login", userH.HandlerLogin, open)
	middleware.GET(r, "/user", userH.HandlerGetUsers, auth)
	middleware.GET(r, "/user/:userId", userH.HandlerGetUser, auth)
	middleware.POST(r, "/group", groupH.HandlerCreateGroup, auth)
	middleware.GET(r, "/group/:groupId", groupH.HandlerGetGroup, auth)
	middleware.PUT(r, "/group/:groupId/members", groupH.HandlerAddMembers, auth)
	middleware.DELETE(r, "/group/:groupId/members", groupH.HandlerRemoveMember, auth)
	middleware.GET(r, "/chat", chatH.HandlerGetUserChats, auth)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Infof("[boot] relay listening on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Errorf("[boot] server exited: %v", err)
	}
}
