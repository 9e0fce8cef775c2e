// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"go-storefront/cache"
	"go-storefront/controllers"
	"go-storefront/routes"
	"go-storefront/services"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	// Set the JWT secret key
	utils.JwtKey = []byte(os.Getenv("JWT_SECRET"))

	// Initialize EmailService
	emailService := utils.NewEmailService()

	// Connect to MongoDB and Redis
	client := utils.ConnectDB()
	defer func() {
		if err = client.Disconnect(context.TODO()); err != nil {
			log.Fatal(err)
		}
	}()
	redisClient := utils.ConnectRedis()

	db := client.Database("storefront")

	// The unique indexes back the stores' duplicate detection; without
	// them racing inserts could leave two carts per owner or two orders
	// per checkout.
	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.EnsureIndexes(indexCtx, db); err != nil {
		log.Fatal("Failed to create indexes: ", err)
	}
	cancelIndexes()

	// Stores
	cartStore := store.NewMongoCartStore(db)
	checkoutStore := store.NewMongoCheckoutStore(db)
	orderStore := store.NewMongoOrderStore(db)
	productStore := store.NewMongoProductStore(db)
	userStore := store.NewMongoUserStore(db)
	subscriberStore := store.NewMongoSubscriberStore(db)

	// Services
	productCache := cache.NewRedisCache(redisClient)
	catalog := services.NewCachedCatalog(productStore, productCache)
	cartService := services.NewCartService(cartStore, catalog)
	checkoutService := services.NewCheckoutService(checkoutStore, orderStore, cartStore)
	orderService := services.NewOrderService(orderStore, userStore)

	// Repair any finalized checkouts a crash left without an order.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		repaired, err := checkoutService.ReconcileOrphans(ctx)
		if err != nil {
			log.Printf("checkout reconciliation failed: %v", err)
			return
		}
		if repaired > 0 {
			log.Printf("reconciled %d orphaned checkouts", repaired)
		}
	}()

	// Initialize controllers
	userController := controllers.NewUserController(userStore, emailService)
	productController := controllers.NewProductController(productStore, productCache)
	cartController := controllers.NewCartController(cartService)
	checkoutController := controllers.NewCheckoutController(checkoutService, userStore, emailService)
	orderController := controllers.NewOrderController(orderService)
	subscriberController := controllers.NewSubscriberController(subscriberStore)

	// Set up the router
	router := mux.NewRouter()
	// Register routes
	routes.RegisterRoutes(router, userController, productController, cartController, checkoutController, orderController, subscriberController)

	// Start the server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	fmt.Printf("Server is running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
