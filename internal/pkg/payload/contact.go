package payload

import "Courier/internal/model"

var (
	contactIDPaths    = []string{"wa_id", "waId", "id", "contact_id", "jid", "remoteJid"}
	contactNamePaths  = []string{"profile.name", "name", "notify", "pushName", "push_name", "verifiedName"}
	contactPhonePaths = []string{"phone", "phone_number", "number", "wa_id"}
)

// ExtractContact 解析 contacts 类负载中的一条联系人
func ExtractContact(entry Object) (*model.Contact, error) {
	id := stripJID(entry.Str(contactIDPaths...))
	if id == "" {
		return nil, ErrNoIdentifier
	}
	phone := entry.Str(contactPhonePaths...)
	if phone == "" {
		phone = id
	}
	return &model.Contact{
		WaID:  id,
		Name:  entry.Str(contactNamePaths...),
		Phone: stripJID(phone),
	}, nil
}
