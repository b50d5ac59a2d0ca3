package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/takumi/wearlog/internal/metrics"
	"github.com/takumi/wearlog/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ドメインサービス
	ClothService ClothServiceInterface
	ItemService  ItemServiceInterface
	TagService   TagServiceInterface

	// 観測性（いずれもnil可）
	Logger          *slog.Logger
	LoginMetrics    LoginMetrics
	HTTPMetrics     middleware.HTTPMetricsRecorder
	MetricsGatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS → SessionMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// ログイン・ヘルスチェック・メトリクスはセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// panic回復を最上位に置き、後続ミドルウェアのpanicも拾う
	r.Use(middleware.NewRecoveryMiddleware())

	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}

	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.LoginMetrics, deps.AuthConfig)
	clothHandler := NewClothHandler(deps.ClothService)
	itemHandler := NewItemHandler(deps.ItemService)
	tagHandler := NewTagHandler(deps.TagService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// ログインはIP単位のレート制限のみ適用
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/api/v1/login", authHandler.Login)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/check_login", authHandler.CheckLogin)

			// 服管理
			r.Post("/create_cloth", clothHandler.Create)
			r.Get("/clothes", clothHandler.List)
			r.Route("/cloth/{id}", func(r chi.Router) {
				r.Get("/", clothHandler.Get)
				r.Delete("/", clothHandler.Delete)
				r.Post("/edit", clothHandler.Edit)
				r.Post("/add_wear", clothHandler.AddWear)
				r.Get("/image", clothHandler.Image)
			})

			// 持ち物管理
			r.Post("/create_item", itemHandler.Create)
			r.Get("/items", itemHandler.List)
			r.Route("/item/{id}", func(r chi.Router) {
				r.Get("/", itemHandler.Get)
				r.Delete("/", itemHandler.Delete)
				r.Post("/edit", itemHandler.Edit)
				r.Post("/add_use", itemHandler.AddUse)
				r.Post("/modify_inventory", itemHandler.ModifyInventory)
				r.Get("/image", itemHandler.Image)

				// タグ付け
				r.Post("/add_tag", tagHandler.AddItemTag)
				r.Post("/remove_tag", tagHandler.RemoveItemTag)
				r.Get("/tags", tagHandler.ListItemTags)
			})

			// タグ管理
			r.Post("/create_tag", tagHandler.Create)
			r.Get("/tags", tagHandler.List)
			r.Delete("/tag/{id}", tagHandler.Delete)
		})
	})

	return r
}
