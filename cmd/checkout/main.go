/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/i92tele/my-1stproject-sub000/internal/common"
	"github.com/i92tele/my-1stproject-sub000/internal/config"
	"github.com/i92tele/my-1stproject-sub000/internal/models"

	"go.uber.org/zap"
)

func printInstructions(payment *models.PaymentRequest) {
	common.PrintHeader("Payment Request Created", common.DefaultWidth)

	fmt.Printf("\n┌─ Payment: %s\n", payment.PaymentId)
	fmt.Printf("│  Tier:  %s ($%s)\n", payment.Tier, payment.ExpectedAmountUSD.String())
	fmt.Printf("│  Asset: %s\n", payment.AssetCode)
	common.PrintBoxSeparator(common.DefaultWidth - 2)
	fmt.Printf("│  Send exactly: %s %s\n", payment.ExpectedAmountCrypto.String(), payment.AssetCode)
	fmt.Printf("│  To address:   %s\n", payment.PayToAddress)
	if payment.Memo != "" {
		fmt.Printf("│  With memo:    %s  (required, the transfer is matched by it)\n", payment.Memo)
	}
	fmt.Printf("%s Valid until:  %s\n", common.BoxPrefix(true), common.FormatDeadline(payment.ExpiresAt))

	common.PrintFooter(fmt.Sprintf("Track it: status -payment %s", payment.PaymentId), common.DefaultWidth)
}

func main() {
	userId := flag.Int64("user", 0, "Purchasing user id")
	tier := flag.String("tier", "", "Subscription tier to purchase")
	asset := flag.String("asset", "", "Asset code to pay with (e.g. TON, BTC)")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if *userId == 0 || *tier == "" || *asset == "" {
		zap.L().Fatal("Usage: checkout -user <id> -tier <name> -asset <code>")
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	assetCode := models.AssetCode(strings.ToUpper(*asset))
	payment, err := services.Payments.CreatePaymentRequest(ctx, *userId, *tier, assetCode)
	if err != nil {
		zap.L().Fatal("Failed to create payment request", zap.Error(err))
	}

	printInstructions(payment)
}
