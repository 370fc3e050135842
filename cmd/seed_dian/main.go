// seed_dian puebla la base de datos con datos de demostración para el
// ambiente de habilitación DIAN: una empresa emisora con su resolución de
// numeración del set de pruebas, un usuario administrador y dos clientes.
//
// Uso: go run ./cmd/seed_dian
// Lee la misma configuración que la API (variables de entorno / .env).
// Es idempotente: si la empresa ya existe no hace nada.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	"github.com/jfacosta/facturapos-api/internal/infrastructure/postgres"
	"github.com/jfacosta/facturapos-api/pkg/config"
)

const (
	demoNIT      = "900999999"
	demoEmail    = "admin@laesquina.co"
	demoPassword = "cambiame-ya-123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fail("cargar configuración: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fail("conexión a PostgreSQL: %v", err)
	}
	defer pool.Close()

	companies := postgres.NewCompanyRepository(pool)
	users := postgres.NewUserRepository(pool)
	customers := postgres.NewCustomerRepository(pool)
	resolutions := postgres.NewResolutionRepository(pool)

	if existing, _ := companies.GetByNIT(ctx, demoNIT); existing != nil {
		fmt.Printf("la empresa demo (NIT %s) ya existe, no se siembra nada\n", demoNIT)
		return
	}

	company := &entity.Company{
		BusinessName: "Tienda La Esquina S.A.S.",
		NIT:          demoNIT,
		DV:           "4",
		Address:      "Calle 10 # 43A-25",
		City:         "Medellín",
		Department:   "Antioquia",
		Country:      "CO",
		Phone:        "+57 604 555 1234",
		Email:        "facturacion@laesquina.co",
		TaxRegime:    "Régimen Simple",
		TestSetID:    "c35a1e8f-3c2b-4d5e-9f10-1a2b3c4d5e6f",
		SoftwareID:   "a1b2c3d4-e5f6-7890-abcd-ef1234567890",
		SoftwarePIN:  "54321",
	}
	if err := companies.Create(ctx, company); err != nil {
		fail("crear empresa: %v", err)
	}
	fmt.Printf("empresa: %s (NIT %s-%s)\n", company.BusinessName, company.NIT, company.DV)

	// Resolución del set de pruebas de habilitación. La clave técnica es la
	// publicada por la DIAN para el ambiente de pruebas.
	res := &entity.Resolution{
		CompanyID:        company.ID,
		ResolutionNumber: "18764003688414",
		ResolutionDate:   day(2025, 1, 1),
		Prefix:           "SETP",
		FromNumber:       1,
		ToNumber:         5000000,
		CurrentNumber:    0,
		TechnicalKey:     "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c",
		ValidFrom:        day(2025, 1, 1),
		ValidTo:          day(2026, 12, 31),
		IsActive:         true,
	}
	if err := resolutions.Create(ctx, res); err != nil {
		fail("crear resolución: %v", err)
	}
	fmt.Printf("resolución: %s prefijo %s rango %d-%d\n",
		res.ResolutionNumber, res.Prefix, res.FromNumber, res.ToNumber)

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		fail("hash de contraseña: %v", err)
	}
	admin := &entity.User{
		CompanyID:    company.ID,
		Email:        demoEmail,
		PasswordHash: string(hash),
		FullName:     "Administrador Demo",
		Role:         entity.RoleAdmin,
		IsActive:     true,
	}
	if err := users.Create(ctx, admin); err != nil {
		fail("crear usuario: %v", err)
	}
	fmt.Printf("usuario admin: %s (contraseña %q)\n", demoEmail, demoPassword)

	demoCustomers := []*entity.Customer{
		{
			CompanyID:      company.ID,
			DocumentType:   entity.DocumentTypeCC,
			DocumentNumber: "1030612345",
			FirstName:      "Laura",
			LastName:       "Pérez",
			Email:          "laura.perez@example.com",
			Phone:          "+57 300 555 6789",
			Address:        "Carrera 70 # 45-12",
			City:           "Medellín",
			Department:     "Antioquia",
			Country:        "CO",
		},
		{
			CompanyID:      company.ID,
			DocumentType:   entity.DocumentTypeNIT,
			DocumentNumber: "800197268",
			DV:             "4",
			BusinessName:   "Distribuciones El Dorado S.A.",
			Email:          "compras@eldorado.com.co",
			Phone:          "+57 601 555 4321",
			Address:        "Avenida El Dorado # 68-90",
			City:           "Bogotá",
			Department:     "Cundinamarca",
			Country:        "CO",
		},
	}
	for _, cust := range demoCustomers {
		if err := customers.Create(ctx, cust); err != nil {
			fail("crear cliente %s: %v", cust.DocumentNumber, err)
		}
		fmt.Printf("cliente: %s (%s %s)\n", cust.DisplayName(), cust.DocumentType, cust.DocumentNumber)
	}

	fmt.Println("datos de demostración listos")
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
