package api

import (
	"github.com/gorilla/mux"

	"github.com/contentdesk/contentdesk/internal/api/recovery"
	"github.com/contentdesk/contentdesk/internal/repository"
	"github.com/contentdesk/contentdesk/internal/services"
)

// NewRouter wires all API routes onto a mux router.
func NewRouter(repos *repository.Repositories) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	// Users and subscriptions
	userSvc := services.NewUserService(repos)
	user := NewUserHandler(userSvc)
	root.HandleFunc("/api/users", user.CreateUser).Methods("POST")
	root.HandleFunc("/api/users", user.FindUserByEmail).Methods("GET").Queries("email", "{email}")
	root.HandleFunc("/api/users/{userId}", user.GetUser).Methods("GET")
	root.HandleFunc("/api/users/{userId}", user.UpdateUser).Methods("PATCH")
	root.HandleFunc("/api/users/{userId}", user.DeleteUser).Methods("DELETE")
	root.HandleFunc("/api/users/{userId}/subscription", user.GetUserSubscription).Methods("GET")
	root.HandleFunc("/api/subscriptions", user.CreateSubscription).Methods("POST")
	root.HandleFunc("/api/subscriptions/{subscriptionId}", user.CancelSubscription).Methods("DELETE")

	// Customers and permissions
	customerSvc := services.NewCustomerService(repos)
	customer := NewCustomerHandler(customerSvc)
	root.HandleFunc("/api/customers", customer.CreateCustomer).Methods("POST")
	root.HandleFunc("/api/customers/{customerId}", customer.GetCustomer).Methods("GET")
	root.HandleFunc("/api/customers/{customerId}", customer.UpdateCustomer).Methods("PATCH")
	root.HandleFunc("/api/customers/{customerId}", customer.DeleteCustomer).Methods("DELETE")
	root.HandleFunc("/api/customers/{customerId}/permissions", customer.GetPermissions).Methods("GET")
	root.HandleFunc("/api/customers/{customerId}/permissions/{userId}", customer.SetPermission).Methods("PUT")
	root.HandleFunc("/api/customers/{customerId}/permissions/{userId}", customer.RemovePermission).Methods("DELETE")
	root.HandleFunc("/api/customers/{customerId}/owner", customer.TransferOwnership).Methods("POST")
	root.HandleFunc("/api/users/{userId}/customers", customer.ListUserCustomers).Methods("GET")

	// Projects
	projectSvc := services.NewProjectService(repos)
	project := NewProjectHandler(projectSvc)
	root.HandleFunc("/api/projects", project.CreateProject).Methods("POST")
	root.HandleFunc("/api/projects/{projectId}", project.GetProject).Methods("GET")
	root.HandleFunc("/api/projects/{projectId}", project.UpdateProject).Methods("PATCH")
	root.HandleFunc("/api/projects/{projectId}", project.DeleteProject).Methods("DELETE")
	root.HandleFunc("/api/projects/{projectId}/ai-context", project.GetAIContext).Methods("GET")
	root.HandleFunc("/api/projects/{projectId}/ai-context", project.UpdateAIContext).Methods("PUT")
	root.HandleFunc("/api/projects/{projectId}/customer", project.MoveToCustomer).Methods("POST")
	root.HandleFunc("/api/customers/{customerId}/projects", project.ListCustomerProjects).Methods("GET")

	// Conversations and messages
	conversationSvc := services.NewConversationService(repos)
	conversation := NewConversationHandler(conversationSvc)
	root.HandleFunc("/api/conversations", conversation.CreateConversation).Methods("POST")
	root.HandleFunc("/api/conversations/{conversationId}", conversation.GetConversation).Methods("GET")
	root.HandleFunc("/api/conversations/{conversationId}", conversation.UpdateConversation).Methods("PATCH")
	root.HandleFunc("/api/conversations/{conversationId}", conversation.DeleteConversation).Methods("DELETE")
	root.HandleFunc("/api/conversations/{conversationId}/messages", conversation.AddMessage).Methods("POST")
	root.HandleFunc("/api/conversations/{conversationId}/messages", conversation.GetMessages).Methods("GET")
	root.HandleFunc("/api/conversations/{conversationId}/posts", conversation.GetLinkedPosts).Methods("GET")
	root.HandleFunc("/api/conversations/{conversationId}/posts/{postId}", conversation.LinkPost).Methods("PUT")
	root.HandleFunc("/api/conversations/{conversationId}/posts/{postId}", conversation.UnlinkPost).Methods("DELETE")

	// Posts
	postSvc := services.NewPostService(repos)
	post := NewPostHandler(postSvc)
	root.HandleFunc("/api/posts", post.CreatePost).Methods("POST")
	root.HandleFunc("/api/posts/{postId}", post.GetPost).Methods("GET")
	root.HandleFunc("/api/posts/{postId}", post.UpdatePost).Methods("PATCH")
	root.HandleFunc("/api/posts/{postId}", post.DeletePost).Methods("DELETE")
	root.HandleFunc("/api/posts/{postId}/content", post.SetContentPieces).Methods("PUT")
	root.HandleFunc("/api/posts/{postId}/media", post.GetMediaLinks).Methods("GET")
	root.HandleFunc("/api/posts/{postId}/media", post.AddMediaLink).Methods("POST")
	root.HandleFunc("/api/posts/{postId}/media", post.RemoveMediaLink).Methods("DELETE")
	root.HandleFunc("/api/posts/{postId}/image-prompts", post.GetImagePrompts).Methods("GET")
	root.HandleFunc("/api/posts/{postId}/image-prompts", post.AddImagePrompt).Methods("POST")
	root.HandleFunc("/api/posts/{postId}/image-prompts", post.RemoveImagePrompt).Methods("DELETE")
	root.HandleFunc("/api/posts/{postId}/conversations", post.GetLinkedConversations).Methods("GET")

	// Health
	healthHandler := NewHealthHandler()
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	return root
}
