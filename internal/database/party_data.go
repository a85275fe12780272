package database

import "time"

func NewPartyData(partyID int, shareExp bool, shareItem bool, leader PartyMember) *PartyData {
	return &PartyData{
		ID:        partyID,
		LeaderID:  leader.CharacterID,
		ShareExp:  shareExp,
		ShareItem: shareItem,
		Members:   []PartyMember{leader},
	}
}

func (party *PartyData) IsLeader(characterID string) bool {
	return party.LeaderID == characterID
}

func (party *PartyData) Setting(shareExp bool, shareItem bool) {
	party.ShareExp = shareExp
	party.ShareItem = shareItem
}

// AddMember 添加成员，已存在时替换快照并保持原有顺序
func (party *PartyData) AddMember(member PartyMember) {
	for i := range party.Members {
		if party.Members[i].CharacterID == member.CharacterID {
			party.Members[i] = member
			return
		}
	}
	party.Members = append(party.Members, member)
}

func (party *PartyData) RemoveMember(characterID string) bool {
	for i := range party.Members {
		if party.Members[i].CharacterID == characterID {
			party.Members = append(party.Members[:i], party.Members[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateMember 更新成员快照，保留上次在线时间
func (party *PartyData) UpdateMember(member PartyMember) {
	for i := range party.Members {
		if party.Members[i].CharacterID == member.CharacterID {
			member.LastOnline = party.Members[i].LastOnline
			party.Members[i] = member
			return
		}
	}
}

func (party *PartyData) NotifyMemberOnline(characterID string, at time.Time) {
	for i := range party.Members {
		if party.Members[i].CharacterID == characterID {
			party.Members[i].LastOnline = at
			return
		}
	}
}

func (party *PartyData) GetMember(characterID string) (PartyMember, bool) {
	for i := range party.Members {
		if party.Members[i].CharacterID == characterID {
			return party.Members[i], true
		}
	}
	return PartyMember{}, false
}

func (party *PartyData) GetMemberIds() []string {
	ids := make([]string, 0, len(party.Members))
	for i := range party.Members {
		ids = append(ids, party.Members[i].CharacterID)
	}
	return ids
}

func (party *PartyData) CountMember() int {
	return len(party.Members)
}
