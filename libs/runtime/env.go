package runtime

import (
	"os"

	"github.com/joho/godotenv"
)

func Getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

// LoadDotenv loads a .env file when present. Missing files are not an error;
// containers set real environment variables instead.
func LoadDotenv() {
	_ = godotenv.Load()
}
