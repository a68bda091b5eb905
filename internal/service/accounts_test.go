package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/Adebayotoheeb666/pancake/internal/models"
	"github.com/Adebayotoheeb666/pancake/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linkRequest() models.LinkAccountRequest {
	return models.LinkAccountRequest{
		UserID:        "user-a",
		Provider:      "Paystack",
		AccountNumber: "0123456789",
		BankCode:      "044",
	}
}

func TestLinkAccount(t *testing.T) {
	f := newFixture(t)
	f.rails[domain.ProviderPaystack].VerifyFunc = func(number, code string) (provider.AccountDetails, error) {
		return provider.AccountDetails{AccountNumber: number, BankCode: code, AccountName: "ADA   LOVELACE"}, nil
	}

	a, err := f.accounts.LinkAccount(context.Background(), linkRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderPaystack, a.Provider)
	assert.Equal(t, "Ada Lovelace", a.AccountName)
	assert.Equal(t, "Access Bank", a.BankName)
	assert.Equal(t, "NG", a.Country)

	list, err := f.accounts.ListLinkedAccounts(context.Background(), "user-a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
}

func TestLinkAccountDuplicate(t *testing.T) {
	f := newFixture(t)
	_, err := f.accounts.LinkAccount(context.Background(), linkRequest())
	require.NoError(t, err)

	_, err = f.accounts.LinkAccount(context.Background(), linkRequest())
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
	assert.Equal(t, "This account is already linked", domain.Message(err))
}

func TestLinkAccountVerificationFails(t *testing.T) {
	f := newFixture(t)
	f.rails[domain.ProviderPaystack].VerifyFunc = func(string, string) (provider.AccountDetails, error) {
		return provider.AccountDetails{}, domain.Wrap(domain.ErrVerification, "Could not resolve account name", errors.New("http 422"))
	}

	_, err := f.accounts.LinkAccount(context.Background(), linkRequest())
	assert.ErrorIs(t, err, domain.ErrVerification)
	assert.Zero(t, f.repo.Calls["CreateLinkedAccount"])
}

func TestLinkAccountRejectsLedgerRail(t *testing.T) {
	f := newFixture(t)
	req := linkRequest()
	req.Provider = "dwolla"

	_, err := f.accounts.LinkAccount(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.rails[domain.ProviderDwolla].Calls())
}

func TestVerifyAccountFallsBackToCommonBanks(t *testing.T) {
	f := newFixture(t)
	f.rails[domain.ProviderMonnify].BanksFunc = func() ([]provider.BankOption, error) {
		return nil, errors.New("upstream down")
	}

	details, err := f.accounts.VerifyAccount(context.Background(), domain.ProviderMonnify, "0123456789", "058")
	require.NoError(t, err)
	assert.Equal(t, "Guaranty Trust Bank", details.BankName)
	assert.Equal(t, "Test User", details.AccountName)

	details, err = f.accounts.VerifyAccount(context.Background(), domain.ProviderMonnify, "0123456789", "999")
	require.NoError(t, err)
	assert.Equal(t, "Unknown Bank", details.BankName)
}

func TestUpdateAndUnlink(t *testing.T) {
	f := newFixture(t)
	f.link(t, "la-1", "user-a", domain.ProviderOpay, "0123456789")
	ctx := context.Background()

	_, err := f.accounts.UpdateLinkedAccount(ctx, "la-1", models.UpdateAccountRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	name := "Savings"
	a, err := f.accounts.UpdateLinkedAccount(ctx, "la-1", models.UpdateAccountRequest{AccountName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Savings", a.AccountName)
	assert.Equal(t, "0123456789", a.AccountNumber)

	require.NoError(t, f.accounts.UnlinkAccount(ctx, "la-1"))
	assert.ErrorIs(t, f.accounts.UnlinkAccount(ctx, "la-1"), domain.ErrNotFound)

	_, err = f.accounts.UpdateLinkedAccount(ctx, "la-1", models.UpdateAccountRequest{AccountName: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListBanksCachesAndFailsSoft(t *testing.T) {
	f := newFixture(t)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.accounts.banks.now = func() time.Time { return clock }
	rail := f.rails[domain.ProviderFlutterwave]

	banks, err := f.accounts.ListBanks(context.Background(), domain.ProviderFlutterwave)
	require.NoError(t, err)
	require.Len(t, banks, 1)

	_, err = f.accounts.ListBanks(context.Background(), domain.ProviderFlutterwave)
	require.NoError(t, err)
	assert.Equal(t, []string{"banks"}, rail.Calls())

	// expired and the rail is down: the old list is still served
	clock = clock.Add(2 * time.Hour)
	rail.BanksFunc = func() ([]provider.BankOption, error) { return nil, errors.New("503") }
	banks, err = f.accounts.ListBanks(context.Background(), domain.ProviderFlutterwave)
	require.NoError(t, err)
	assert.Equal(t, "Access Bank", banks[0].Name)
	assert.Len(t, rail.Calls(), 2)

	// nothing cached at all
	f.rails[domain.ProviderOpay].BanksFunc = func() ([]provider.BankOption, error) { return nil, errors.New("503") }
	banks, err = f.accounts.ListBanks(context.Background(), domain.ProviderOpay)
	require.NoError(t, err)
	assert.Empty(t, banks)
	assert.NotNil(t, banks)
}

func TestAllBanks(t *testing.T) {
	f := newFixture(t)
	f.rails[domain.ProviderOpay].BanksFunc = func() ([]provider.BankOption, error) {
		return []provider.BankOption{{Name: "OPay", Code: "100004"}}, nil
	}

	all, err := f.accounts.AllBanks(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, len(domain.RegionalProviders))
	assert.Equal(t, "OPay", all[domain.ProviderOpay][0].Name)
	assert.NotContains(t, all, domain.ProviderDwolla)
}

func TestLookupReceiver(t *testing.T) {
	f := newFixture(t)
	seedBanks(t, f)
	f.link(t, "la-1", "user-b", domain.ProviderPaystack, "9876543210")
	ctx := context.Background()

	token, err := f.accounts.ShareToken(ctx, "bank-b")
	require.NoError(t, err)

	resp, err := f.accounts.LookupReceiver(ctx, models.ReceiverLookupRequest{SharableID: token})
	require.NoError(t, err)
	assert.Equal(t, "****cc-b", resp.AccountName)
	assert.Equal(t, models.SharedReceiver{AccountMask: "****cc-b"}, resp.Account)

	resp, err = f.accounts.LookupReceiver(ctx, models.ReceiverLookupRequest{LinkedAccountID: "la-1"})
	require.NoError(t, err)
	assert.Equal(t, "Holder la-1", resp.AccountName)

	_, err = f.accounts.LookupReceiver(ctx, models.ReceiverLookupRequest{LinkedAccountID: "la-x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.accounts.LookupReceiver(ctx, models.ReceiverLookupRequest{SharableID: "garbage"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.accounts.LookupReceiver(ctx, models.ReceiverLookupRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMaskAccountID(t *testing.T) {
	assert.Equal(t, "****7890", maskAccountID("acc-1234567890"))
	assert.Equal(t, "****", maskAccountID("acc"))
	assert.Equal(t, "****", maskAccountID(""))
}

func TestShareTokenUnknownBank(t *testing.T) {
	f := newFixture(t)
	_, err := f.accounts.ShareToken(context.Background(), "bank-zz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransactions(t *testing.T) {
	f := newFixture(t)
	f.link(t, "la-sender", "user-a", domain.ProviderPaystack, "0123456789")
	f.link(t, "la-receiver", "user-b", domain.ProviderPaystack, "9876543210")
	_, err := f.transfer.PerformTransfer(context.Background(), providerRequest())
	require.NoError(t, err)

	for _, user := range []string{"user-a", "user-b"} {
		txns, err := f.accounts.Transactions(context.Background(), user)
		require.NoError(t, err)
		assert.Len(t, txns, 1, user)
	}
	txns, err := f.accounts.Transactions(context.Background(), "user-c")
	require.NoError(t, err)
	assert.Empty(t, txns)

	_, err = f.accounts.Transactions(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestHolderName(t *testing.T) {
	assert.Equal(t, "Chinedu Okafor", holderName("  CHINEDU   OKAFOR "))
	assert.Equal(t, "", holderName("   "))
}
