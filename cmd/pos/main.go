package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/romana/rlog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"pos_system/custom/auth"
	"pos_system/custom/coordinator"
	"pos_system/custom/message_queue"
	"pos_system/custom/order"
	"pos_system/custom/payment"
	"pos_system/custom/product"
	"pos_system/custom/staff"
	"pos_system/custom/table"
	"pos_system/custom/util"
	"pos_system/model"
)

func main() {
	serverConfig := util.ServerConfig{}
	serverConfig.GetConf("./config/config.yaml")
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		serverConfig.Postgres.Host, serverConfig.Postgres.Port, serverConfig.Postgres.Username, serverConfig.Postgres.Password, serverConfig.Postgres.Database)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		panic("failed to connect database" + err.Error())
	}
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	// Route list queries to the replica when one is configured.
	if serverConfig.Replica_dsn != "" {
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.Open(serverConfig.Replica_dsn)},
		}))
		if err != nil {
			panic("failed to register read replica" + err.Error())
		}
	}

	// Auto migrate table schemas
	err = db.AutoMigrate(model.ALL_POS_TABLES...)
	if err != nil {
		panic("failed to migrate database" + err.Error())
	}

	events := message_queue.NewMessageQueue()
	coord := coordinator.New(db, events)
	evaluator := auth.NewEvaluator(db, serverConfig.Staff_id_header)

	orderManager := order.NewManager(db, coord, events, serverConfig.Tax_rate)
	tableManager := table.NewManager(db)
	paymentProcessor := payment.NewProcessor(db, coord)

	orderCtx := order.HandlerContext{}
	orderCtx.InitialHandlerContext(orderManager, evaluator)
	tableCtx := table.HandlerContext{}
	tableCtx.InitialHandlerContext(tableManager, evaluator, coord.Locks())
	paymentCtx := payment.HandlerContext{}
	paymentCtx.InitialHandlerContext(paymentProcessor, evaluator)
	staffCtx := staff.HandlerContext{}
	staffCtx.InitialHandlerContext(db, evaluator)
	productCtx := product.HandlerContext{}
	productCtx.InitialHandlerContext(db, evaluator)

	// Feed order events to the kitchen/cashier displays.
	go consumeEvents(events)

	http.HandleFunc(order.RouteListOrders, orderCtx.ListOrders)
	http.HandleFunc(order.RouteQueryOrder, orderCtx.QueryOrder)
	http.HandleFunc(order.RouteCreateOrder, orderCtx.CreateOrder)
	http.HandleFunc(order.RouteAddItem, orderCtx.AddItem)
	http.HandleFunc(order.RouteUpdateItemStatus, orderCtx.UpdateItemStatus)
	http.HandleFunc(order.RouteSetDiscount, orderCtx.SetDiscount)
	http.HandleFunc(order.RouteTransitionOrder, orderCtx.TransitionOrder)
	http.HandleFunc(order.RouteCancelOrder, orderCtx.CancelOrder)
	http.HandleFunc(order.RouteDeleteOrder, orderCtx.DeleteOrder)

	http.HandleFunc(table.RouteListTables, tableCtx.ListTables)
	http.HandleFunc(table.RouteCreateTable, tableCtx.CreateTable)
	http.HandleFunc(table.RouteUpdateTable, tableCtx.UpdateTable)
	http.HandleFunc(table.RouteUpdateTableStatus, tableCtx.UpdateTableStatus)
	http.HandleFunc(table.RouteReserveTable, tableCtx.ReserveTable)
	http.HandleFunc(table.RouteAssignTable, tableCtx.AssignTable)
	http.HandleFunc(table.RouteDeleteTable, tableCtx.DeleteTable)

	http.HandleFunc(payment.RouteListPayments, paymentCtx.ListPayments)
	http.HandleFunc(payment.RouteQueryOrderPayments, paymentCtx.QueryOrderPayments)
	http.HandleFunc(payment.RouteCreatePayment, paymentCtx.CreatePayment)
	http.HandleFunc(payment.RouteRefundPayment, paymentCtx.RefundPayment)

	http.HandleFunc(staff.RouteListStaff, staffCtx.ListStaff)
	http.HandleFunc(staff.RouteCreateStaff, staffCtx.CreateStaff)
	http.HandleFunc(staff.RouteUpdateStaff, staffCtx.UpdateStaff)
	http.HandleFunc(staff.RouteDeleteStaff, staffCtx.DeleteStaff)

	http.HandleFunc(product.RouteListProducts, productCtx.ListProducts)
	http.HandleFunc(product.RouteCreateProducts, productCtx.CreateProducts)
	http.HandleFunc(product.RouteUpdateProduct, productCtx.UpdateProduct)

	log.Fatal(http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", serverConfig.Pos_port), nil))
}

func consumeEvents(events *message_queue.MessageQueue) {
	for {
		event := events.Dequeue()
		if event == nil {
			continue
		}
		if event.TableID != nil {
			rlog.Infof("[feed] %s order=%s table=%d %s", event.Type, event.OrderNumber, *event.TableID, event.Detail)
		} else {
			rlog.Infof("[feed] %s order=%s %s", event.Type, event.OrderNumber, event.Detail)
		}
	}
}
