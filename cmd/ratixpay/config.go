package main

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"log"
	"os"
	"strconv"
)

type Config struct {
	endpoint              string
	gatewayEndpoint       string
	gatewayWalletID       string
	redisEndpoint         string
	dsn                   string
	logLevel              string
	env                   string
	authSecretKey         string
	withdrawalFeePercent  float64
	saleCommissionPercent float64
}

func generateRandomString(length int) string {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}

func NewConfig() Config {
	var (
		endpoint              string
		gatewayEndpoint       string
		gatewayWalletID       string
		redisEndpoint         string
		dsn                   string
		logLevel              string
		env                   string
		authSecretKey         string
		withdrawalFeePercent  float64
		saleCommissionPercent float64
	)

	flag.StringVar(&endpoint, "a", "localhost:8090", "address and port to run server")
	flag.StringVar(&gatewayEndpoint, "g", "https://e2payments.explicador.co.mz", "payment gateway base url")
	flag.StringVar(&gatewayWalletID, "w", "", "payment gateway wallet id")
	flag.StringVar(&redisEndpoint, "r", "", "redis address for notifications, empty disables them")
	flag.StringVar(&dsn, "d", "", "data source name for database connection")
	flag.Float64Var(&withdrawalFeePercent, "taxa-saque", 5, "withdrawal fee percent retained by the platform")
	flag.Float64Var(&saleCommissionPercent, "comissao", 10, "sale commission percent retained by the platform")
	flag.Parse()

	if address := os.Getenv("RUN_ADDRESS"); address != "" {
		endpoint = address
	}

	if gatewayAddress := os.Getenv("GATEWAY_ADDRESS"); gatewayAddress != "" {
		gatewayEndpoint = gatewayAddress
	}

	if walletID := os.Getenv("GATEWAY_WALLET_ID"); walletID != "" {
		gatewayWalletID = walletID
	}

	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		redisEndpoint = redisAddress
	}

	if d := os.Getenv("DATABASE_URI"); d != "" {
		dsn = d
	}

	if fee := os.Getenv("WITHDRAWAL_FEE_PERCENT"); fee != "" {
		if parsed, err := strconv.ParseFloat(fee, 64); err == nil {
			withdrawalFeePercent = parsed
		} else {
			log.Printf("WARNING: WITHDRAWAL_FEE_PERCENT %q is not a number, using %.1f\n", fee, withdrawalFeePercent)
		}
	}

	if commission := os.Getenv("SALE_COMMISSION_PERCENT"); commission != "" {
		if parsed, err := strconv.ParseFloat(commission, 64); err == nil {
			saleCommissionPercent = parsed
		} else {
			log.Printf("WARNING: SALE_COMMISSION_PERCENT %q is not a number, using %.1f\n", commission, saleCommissionPercent)
		}
	}

	if l := os.Getenv("LOG_LEVEL"); l != "" {
		logLevel = l
	} else {
		logLevel = "error"
	}

	if e := os.Getenv("ENV"); e != "" {
		env = e
	} else {
		env = "production"
	}

	if secret := os.Getenv("AUTH_SECRET_KEY"); secret != "" {
		authSecretKey = secret
	} else {
		if env == "production" {
			authSecretKey = generateRandomString(10)
			log.Printf("WARNING: AUTH_SECRET_KEY has to be defined for production environment\n")
		} else {
			authSecretKey = "development-key"
		}
	}

	return Config{
		endpoint,
		gatewayEndpoint,
		gatewayWalletID,
		redisEndpoint,
		dsn,
		logLevel,
		env,
		authSecretKey,
		withdrawalFeePercent,
		saleCommissionPercent,
	}
}
