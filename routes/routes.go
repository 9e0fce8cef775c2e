// routes/routes.go
package routes

import (
	"go-storefront/controllers"
	"go-storefront/middleware"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(
	router *mux.Router,
	userController *controllers.UserController,
	productController *controllers.ProductController,
	cartController *controllers.CartController,
	checkoutController *controllers.CheckoutController,
	orderController *controllers.OrderController,
	subscriberController *controllers.SubscriberController,
) {
	// Public routes
	router.HandleFunc("/register", userController.Register).Methods("POST")
	router.HandleFunc("/login", userController.Login).Methods("POST")
	router.HandleFunc("/verify", userController.VerifyEmail).Methods("GET")
	router.HandleFunc("/subscribe", subscriberController.Subscribe).Methods("POST")

	// Product routes
	router.HandleFunc("/products", productController.GetProducts).Methods("GET")
	router.HandleFunc("/products/{id}", productController.GetProductByID).Methods("GET")

	// Admin product routes
	adminProducts := router.PathPrefix("/products").Subrouter()
	adminProducts.Use(middleware.AuthMiddleware)
	adminProducts.Use(middleware.AdminMiddleware)
	adminProducts.HandleFunc("", productController.CreateProduct).Methods("POST")
	adminProducts.HandleFunc("/{id}", productController.UpdateProduct).Methods("PUT")
	adminProducts.HandleFunc("/{id}", productController.DeleteProduct).Methods("DELETE")

	// Cart routes: public, but a logged-in caller's token identifies them
	cart := router.PathPrefix("/cart").Subrouter()
	cart.Use(middleware.OptionalAuth)
	cart.HandleFunc("", cartController.GetCart).Methods("GET")
	cart.HandleFunc("", cartController.AddToCart).Methods("POST")
	cart.HandleFunc("", cartController.UpdateQuantity).Methods("PUT")
	cart.HandleFunc("", cartController.RemoveFromCart).Methods("DELETE")

	// Protected routes
	protected := router.PathPrefix("/").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/cart/merge", cartController.MergeCarts).Methods("POST")
	protected.HandleFunc("/profile", userController.GetProfile).Methods("GET")
	protected.HandleFunc("/checkout", checkoutController.CreateCheckout).Methods("POST")
	protected.HandleFunc("/checkout/{id}/pay", checkoutController.UpdatePayment).Methods("PUT")
	protected.HandleFunc("/checkout/{id}/finalize", checkoutController.FinalizeCheckout).Methods("POST")
	// myorders must be registered before the {id} route
	protected.HandleFunc("/order/myorders", orderController.MyOrders).Methods("GET")
	protected.HandleFunc("/order/{id}", orderController.GetOrder).Methods("GET")

	// Admin order routes
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AuthMiddleware)
	admin.Use(middleware.AdminMiddleware)
	admin.HandleFunc("/orders", orderController.AdminListOrders).Methods("GET")
	admin.HandleFunc("/orders/{id}", orderController.AdminUpdateOrder).Methods("PUT")
	admin.HandleFunc("/orders/{id}", orderController.AdminDeleteOrder).Methods("DELETE")

	// Admin user management
	admin.HandleFunc("/users", userController.AdminListUsers).Methods("GET")
	admin.HandleFunc("/users", userController.AdminCreateUser).Methods("POST")
	admin.HandleFunc("/users/{id}", userController.AdminUpdateUser).Methods("PUT")
	admin.HandleFunc("/users/{id}", userController.AdminDeleteUser).Methods("DELETE")
	admin.HandleFunc("/subscribers", subscriberController.AdminListSubscribers).Methods("GET")
}
