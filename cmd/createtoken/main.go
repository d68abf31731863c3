package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"axiapac.com/punchclock/security"
)

func main() {
	employee := flag.String("employee", "", "employee number the token is issued to")
	userName := flag.String("user", "", "user name")
	email := flag.String("email", "", "email address")
	expires := flag.Int64("expires", 3600, "lifetime in seconds")
	flag.Parse()

	_ = godotenv.Load()

	if *employee == "" {
		log.Fatal("-employee is required")
	}

	token, err := security.CreateIdentityToken(&security.EmployeeIdentity{
		EmployeeNumber: *employee,
		UserName:       *userName,
		Email:          *email,
	}, os.Getenv("AXIAPAC_SIGNING_SECRET"), *expires)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
