// nfsectl agrupa las tareas de operación de NFS-e: claves de cifrado, tokens de Focus NFe,
// migraciones, catálogo nacional y vista previa de plantillas.
//
// Uso: go run ./cmd/nfsectl <comando> [flags]
package main

import (
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

func main() {
	// .env opcional; las variables del entorno tienen prioridad.
	_ = godotenv.Load()
	Execute()
}
