package main

import (
	_ "github.com/joho/godotenv/autoload"
)

// @title NoteAlly API
// @version 1.0
// @description Share PDF study notes, browse a live feed, like and track views.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	Execute()
}
