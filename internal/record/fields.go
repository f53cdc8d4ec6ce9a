package record

// FieldType is the column type a value is coerced to before it reaches the store.
type FieldType int

const (
	Text FieldType = iota
	Int
	Float
	Bool
	Date
	Time
)

func (t FieldType) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Date:
		return "date"
	case Time:
		return "time"
	default:
		return "text"
	}
}

// Field describes one editable column. Label is the header used by the legacy
// spreadsheet exports.
type Field struct {
	Name  string
	Label string
	Type  FieldType
}

type Schema []Field

func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ByLabel resolves a spreadsheet header to its field.
func (s Schema) ByLabel(label string) (Field, bool) {
	for _, f := range s {
		if f.Label == label {
			return f, true
		}
	}
	return Field{}, false
}

var directorySchema = Schema{
	{"type_de_partenaire", "Type de partenaire", Text},
	{"personnalite_juridique", "Personnalité juridique", Text},
	{"type_de_fournisseur", "Type de fournisseur", Text},
	{"nom", "Nom", Text},
	{"prenom", "Prénom", Text},
	{"voie", "Voie", Text},
	{"complement", "Complément", Text},
	{"npa", "NPA", Int},
	{"localite", "Localité", Text},
	{"pays", "Pays", Text},
	{"telephone", "N° de téléphone", Text},
	{"portable", "N° de portable", Text},
	{"courriel", "Courriel", Text},
	{"site_web", "Site web", Text},
	{"activite_specialite", "Activité et éventuelle(s) spécialité(s)", Text},
	{"medecin", "Médecin", Bool},
	{"medecin_intra_hospitalier", "Médecin intra-hospitalier", Bool},
	{"horaires_ouverture", "Horaires d’ouverture", Text},
	{"coord_geo_nord", "Coordonnées de géolocalisation Nord", Float},
	{"coord_geo_est", "Coordonnées de géolocalisation Est", Float},
	{"coord_geo_long", "Coordonnées de géolocalisation long.", Float},
	{"coord_geo_lat", "Coordonnées de géolocalisation lat.", Float},
	{"besoin_convention", "Besoin d'une convention", Bool},
	{"type_de_convention", "Type de convention", Text},
	{"date_convention_soumise", "Date convention soumise", Date},
	{"date_convention_valide_recue", "Date convention valide reçue", Date},
	{"date_derniere_modification", "Date dernière modification", Date},
	{"date_saisie", "Date de saisie", Date},
	{"date_dernier_appel_actualisation", "Date du dernier appel à actualisation des données", Date},
}

var eventSchema = Schema{
	{"nom_evenement", "Nom événement", Text},
	{"titre_evenement", "Titre de l'événement", Text},
	{"date_debut", "Date de début", Date},
	{"date_fin", "Date de fin", Date},
	{"horaire_debut", "Horaire début", Time},
	{"horaire_fin", "Horaire fin", Time},
	{"texte_libre", "Texte libre", Text},
	{"court_descriptif", "Court descriptif", Text},
	{"numero_partenaire", "Numéro partenaire", Int},
	{"nom_partenaire", "Nom partenaire (organisateur)", Text},
	{"partenaire_de_la_selection", "Partenaire de la sélection", Text},
	{"sites_originaux", "Sites originaux", Text},
	{"date_creation", "Date de création", Date},
	{"mode_creation", "Mode de création", Text},
	{"date_derniere_modification", "Date de dernière modification", Date},
	{"mode_modification", "Mode de modification", Text},
	{"id_dernier_modificateur", "Id dernier modificateur", Int},
	{"date_de_peremption", "Date de péremption", Date},
}
