package database

import (
	"errors"
	"testing"
)

func TestMemoryCharacterStore(t *testing.T) {
	store := NewMemoryStore()
	_ = store.SaveCharacter(&CharacterData{ID: "1", UserID: "u1", Name: "Alpha"})
	_ = store.SaveCharacter(&CharacterData{ID: "2", UserID: "u1", Name: "Beta"})

	character, err := store.GetCharacter("u1", "2")
	if err != nil {
		t.Fatal("Except got character id 2, but got error")
	}
	if character.Name != "Beta" {
		t.Errorf("Except character name Beta, but got %s", character.Name)
	}

	_, err = store.GetCharacter("u2", "2")
	if err == nil {
		t.Fatal("Except not found error for wrong user, but got nil")
	}

	_ = store.DeleteCharacter("1")
	_, err = store.GetCharacter("u1", "1")
	if err == nil {
		t.Fatal("Except not found error, but got nil")
	}
}

func TestMemoryPartyStore(t *testing.T) {
	store := NewMemoryStore()
	_ = store.SaveCharacter(&CharacterData{ID: "L", UserID: "u1", Name: "Leader"})
	_ = store.SaveCharacter(&CharacterData{ID: "M", UserID: "u2", Name: "Member"})

	partyID, err := store.CreateParty(true, false, "L")
	if err != nil {
		t.Fatalf("CreateParty failed: %v", err)
	}
	_ = store.SetCharacterParty("L", partyID)
	_ = store.SetCharacterParty("M", partyID)

	party, err := store.GetParty(partyID)
	if err != nil {
		t.Fatalf("GetParty failed: %v", err)
	}
	if !party.ShareExp || party.ShareItem {
		t.Errorf("Except share_exp=true share_item=false, got %+v", party)
	}
	if party.CountMember() != 2 {
		t.Errorf("Except 2 members, got %d", party.CountMember())
	}

	_ = store.DeleteParty(partyID)
	_, err = store.GetParty(partyID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Except ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryCashStore(t *testing.T) {
	store := NewMemoryStore()
	store.PutUser(&UserData{UserID: "u1", AccessToken: "token", Cash: 100})

	cash, err := store.DecreaseCash("u1", 150)
	if !errors.Is(err, ErrNotEnoughCash) {
		t.Fatalf("Except ErrNotEnoughCash, got %v", err)
	}

	cash, err = store.GetCash("u1")
	if err != nil || cash != 100 {
		t.Fatalf("Except balance unchanged at 100, got %d (%v)", cash, err)
	}

	cash, err = store.DecreaseCash("u1", 30)
	if err != nil || cash != 70 {
		t.Fatalf("Except balance 70, got %d (%v)", cash, err)
	}

	cash, err = store.IncreaseCash("u1", 50)
	if err != nil || cash != 120 {
		t.Fatalf("Except balance 120, got %d (%v)", cash, err)
	}
}
