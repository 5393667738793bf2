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

func printStatus(info *models.PaymentStatusInfo) {
	common.PrintHeader(fmt.Sprintf("Payment %s", info.PaymentId), common.DefaultWidth)

	fmt.Printf("\n┌─ Status: %s\n", strings.ToUpper(string(info.Status)))
	fmt.Printf("│  User:     %d\n", info.UserId)
	fmt.Printf("│  Expected: %s %s ($%s)\n",
		info.ExpectedAmountCrypto.String(), info.AssetCode, info.ExpectedAmountUSD.String())
	fmt.Printf("│  Address:  %s\n", info.PayToAddress)
	if info.Memo != "" {
		fmt.Printf("│  Memo:     %s\n", info.Memo)
	}
	fmt.Printf("│  Detected: %s\n", common.ShortHash(info.DetectedTxHash))
	fmt.Printf("%s Deadline: %s\n", common.BoxPrefix(true), common.FormatDeadline(info.ExpiresAt))
	fmt.Println()
}

func main() {
	paymentId := flag.String("payment", "", "Payment id to inspect")
	verify := flag.Bool("verify", false, "Run a verification pass against the chain before reporting")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if *paymentId == "" {
		zap.L().Fatal("Usage: status -payment <id> [-verify]")
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

	if *verify {
		result, err := services.Payments.VerifyPayment(ctx, *paymentId)
		if err != nil {
			zap.L().Fatal("Verification failed", zap.Error(err))
		}
		if result.Matched {
			fmt.Printf("✓ Matched on-chain transfer %s\n", common.ShortHash(result.TxHash))
		} else {
			fmt.Printf("~ No matching transfer yet (status: %s)\n", result.Status)
		}
	}

	info, err := services.Payments.GetPaymentStatus(ctx, *paymentId)
	if err != nil {
		zap.L().Fatal("Failed to load payment", zap.Error(err))
	}

	printStatus(info)
}
