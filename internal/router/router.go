package router

import (
	"time"

	"dulceriapos/internal/config"
	"dulceriapos/internal/handler"
	"dulceriapos/internal/infra"
	"dulceriapos/internal/middleware"
	"dulceriapos/internal/model"
	"dulceriapos/internal/repository"
	"dulceriapos/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Repositories groups the data access layer; workers and the cron share it
// with the HTTP services.
type Repositories struct {
	Usuarios    repository.UsuarioRepository
	Sesiones    repository.SesionRepository
	Negocios    repository.NegocioRepository
	Productos   repository.ProductoRepository
	Categorias  repository.CategoriaRepository
	Movimientos repository.MovimientoStockRepository
	Ventas      repository.VentaRepository
	Cajas       repository.CajaRepository
	Prospectos  repository.ProspectoRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Usuarios:    repository.NewUsuarioRepository(db),
		Sesiones:    repository.NewSesionRepository(db),
		Negocios:    repository.NewNegocioRepository(db),
		Productos:   repository.NewProductoRepository(db),
		Categorias:  repository.NewCategoriaRepository(db),
		Movimientos: repository.NewMovimientoStockRepository(db),
		Ventas:      repository.NewVentaRepository(db),
		Cajas:       repository.NewCajaRepository(db),
		Prospectos:  repository.NewProspectoRepository(db),
	}
}

type Services struct {
	Auth       service.AuthService
	Usuarios   service.UsuarioService
	Negocios   service.NegocioService
	Productos  service.ProductoService
	Categorias service.CategoriaService
	Inventario service.InventarioService
	Ventas     service.VentaService
	Caja       service.CajaService
	Reportes   service.ReporteService
	Prospectos service.ProspectoService
}

// NewServices wires the service layer.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func NewServices(cfg *config.Config, repos *Repositories, rdb *redis.Client, mailer service.Mailer, jobs service.Encolador) *Services {
	loc := cfg.Location()
	precios := service.NewPrecioCache(rdb)

	inventarioSvc := service.NewInventarioService(repos.Productos, repos.Movimientos, precios, loc)
	negocioSvc := service.NewNegocioService(repos.Negocios, repos.Usuarios)

	return &Services{
		Auth:       service.NewAuthService(repos.Usuarios, repos.Sesiones, repos.Negocios, rdb, cfg),
		Usuarios:   service.NewUsuarioService(repos.Usuarios, repos.Sesiones, repos.Negocios, cfg),
		Negocios:   negocioSvc,
		Productos:  service.NewProductoService(repos.Productos, repos.Categorias, repos.Negocios, inventarioSvc, precios),
		Categorias: service.NewCategoriaService(repos.Categorias),
		Inventario: inventarioSvc,
		Ventas: service.NewVentaService(service.VentaDeps{
			Repo:         repos.Ventas,
			ProductoRepo: repos.Productos,
			CajaRepo:     repos.Cajas,
			UsuarioRepo:  repos.Usuarios,
			NegocioRepo:  repos.Negocios,
			Inventario:   inventarioSvc,
			Folios:       service.NewFolioGenerator(rdb),
			Precios:      precios,
			Jobs:         jobs,
			Location:     loc,
		}),
		Caja:       service.NewCajaService(repos.Cajas, repos.Ventas, repos.Usuarios, repos.Negocios, jobs, loc),
		Reportes:   service.NewReporteService(repos.Ventas, repos.Productos, repos.Cajas, repos.Negocios, mailer, loc),
		Prospectos: service.NewProspectoService(repos.Prospectos, negocioSvc, jobs),
	}
}

// New returns a configured Gin engine serving svcs.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, svcs *Services, smtpCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Origins()...))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(rdb, 1000, time.Minute)) // per IP

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(svcs.Auth)
	usuariosH := handler.NewUsuariosHandler(svcs.Usuarios)
	negociosH := handler.NewNegociosHandler(svcs.Negocios)
	productosH := handler.NewProductosHandler(svcs.Productos)
	inventarioH := handler.NewInventarioHandler(svcs.Inventario, svcs.Productos)
	categoriasH := handler.NewCategoriasHandler(svcs.Categorias)
	ventasH := handler.NewVentasHandler(svcs.Ventas)
	cajaH := handler.NewCajaHandler(svcs.Caja)
	reportesH := handler.NewReportesHandler(svcs.Reportes)
	prospectosH := handler.NewProspectosHandler(svcs.Prospectos)
	consultaH := handler.NewConsultaPreciosHandler(svcs.Productos)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(rdb), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Price checker kiosk, no auth
	r.GET("/v1/precio/:negocio/:codigo", consultaH.ConsultarPrecio)

	// Lead funnel: public form and registration link, admin key for the rest
	formLimiter := middleware.FormRateLimiter(rdb)
	r.POST("/v1/prospectos", formLimiter, prospectosH.Crear)
	r.POST("/v1/prospectos/registro/:token", formLimiter, prospectosH.CompletarRegistro)

	admin := middleware.AdminKey(cfg.AdminAPIKey)
	r.POST("/v1/negocios", admin, negociosH.Registrar)
	r.GET("/v1/prospectos", admin, prospectosH.Listar)
	r.GET("/v1/prospectos/:id", admin, prospectosH.Obtener)
	r.PATCH("/v1/prospectos/:id", admin, prospectosH.Avanzar)

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.SesionActiva(svcs.Auth))
	{
		perm := middleware.RequirePermiso

		v1.POST("/auth/logout", authH.Logout)

		conf := v1.Group("", perm(model.PermisoAccesoConfiguracion))
		{
			conf.GET("/configuracion", negociosH.ObtenerConfiguracion)
			conf.PUT("/configuracion", negociosH.ActualizarConfiguracion)
			conf.GET("/sucursales", negociosH.ListarSucursales)
			conf.POST("/sucursales", negociosH.CrearSucursal)
			conf.PUT("/sucursales/:id", negociosH.ActualizarSucursal)
		}

		usuarios := v1.Group("/usuarios", perm(model.PermisoGestionarUsuarios))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.GET("/sesiones", usuariosH.SesionesActivas)
			usuarios.GET("/:id", usuariosH.Obtener)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
			usuarios.POST("/:id/cerrar-sesiones", usuariosH.CerrarSesiones)
		}

		// Catalog reads serve both the register and the back office
		lectura := perm(model.PermisoAccesoPOS, model.PermisoAccesoInventario)
		v1.GET("/productos", lectura, productosH.Listar)
		v1.GET("/productos/buscar", lectura, productosH.Buscar)
		v1.GET("/productos/:id", lectura, productosH.ObtenerPorID)
		v1.POST("/productos", perm(model.PermisoAgregarProductos), productosH.Crear)
		v1.PUT("/productos/:id", perm(model.PermisoEditarProductos), productosH.Actualizar)
		v1.DELETE("/productos/:id", perm(model.PermisoEliminarProductos), productosH.Eliminar)
		v1.PATCH("/productos/:id/reactivar", perm(model.PermisoEditarProductos), productosH.Reactivar)
		v1.POST("/productos/:id/stock", perm(model.PermisoAjustarStock), productosH.AjustarStock)

		inv := v1.Group("/inventario")
		{
			inv.GET("/stock-bajo", perm(model.PermisoAccesoInventario), inventarioH.StockBajo)
			inv.GET("/movimientos", perm(model.PermisoAccesoInventario), inventarioH.ListarMovimientos)
			inv.POST("/verificar", perm(model.PermisoRespaldarDatos), inventarioH.VerificarConsistencia)
		}

		v1.GET("/categorias", lectura, categoriasH.Listar)
		categorias := v1.Group("/categorias", perm(model.PermisoEditarProductos))
		{
			categorias.POST("", categoriasH.Crear)
			categorias.PUT("/:id", categoriasH.Actualizar)
			categorias.DELETE("/:id", categoriasH.Desactivar)
		}

		ventas := v1.Group("/ventas")
		{
			ventas.POST("", perm(model.PermisoProcesarVentas), ventasH.RegistrarVenta)
			ventas.GET("", perm(model.PermisoProcesarVentas), ventasH.ListarVentas)
			ventas.GET("/:id", perm(model.PermisoProcesarVentas), ventasH.ObtenerVenta)
			ventas.GET("/:id/ticket", perm(model.PermisoProcesarVentas), ventasH.Ticket)
			ventas.POST("/:id/cancelar", perm(model.PermisoCancelarVentas), ventasH.CancelarVenta)
			ventas.POST("/:id/devolver", perm(model.PermisoCancelarVentas), ventasH.DevolverVenta)
		}

		caja := v1.Group("/caja")
		{
			caja.POST("/abrir", perm(model.PermisoAccesoCaja), cajaH.Abrir)
			caja.GET("/estado", perm(model.PermisoAccesoCaja), cajaH.Estado)
			caja.GET("/historial", perm(model.PermisoVerReportesFinancieros), cajaH.Historial)
			caja.POST("/gastos", perm(model.PermisoAccesoCaja), cajaH.RegistrarGasto)
			caja.GET("/gastos", perm(model.PermisoAccesoCaja), cajaH.ListarGastos)
			caja.GET("/:id", perm(model.PermisoAccesoCaja), cajaH.ObtenerCaja)
			caja.POST("/:id/cerrar", perm(model.PermisoAccesoCaja), cajaH.Cerrar)
		}

		reportes := v1.Group("/reportes")
		{
			reportes.GET("/diario", perm(model.PermisoAccesoReportes), reportesH.Diario)
			reportes.GET("/ventas.xlsx", perm(model.PermisoVerReportesFinancieros), reportesH.ExportarVentas)
			reportes.POST("/diario/enviar", perm(model.PermisoVerReportesFinancieros), reportesH.EnviarDiario)
		}
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
