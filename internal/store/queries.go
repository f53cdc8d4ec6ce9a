package store

// Table and column names are interpolated with pgx.Identifier; values are always bound.
const (
	listQuery = `
		SELECT row_to_json(t)::text
		FROM %s t
		ORDER BY t.numero
	`

	insertQuery = `
		INSERT INTO %s (%s)
		VALUES (%s)
		RETURNING numero
	`

	updateQuery = `
		UPDATE %s
		SET %s
		WHERE numero = $%d
	`

	similarQuery = `
		SELECT row_to_json(t)::text
		FROM %[1]s t
		WHERE similarity(t.%[2]s, $1) > $2
		  AND LOWER(LEFT(t.%[3]s, 1)) = LOWER(LEFT($3, 1))
		ORDER BY similarity(t.%[2]s, $1) DESC, t.numero
	`
)

const schemaDDL = `
CREATE EXTENSION IF NOT EXISTS pg_trgm;

CREATE TABLE IF NOT EXISTS annuaire (
    numero SERIAL PRIMARY KEY,
    type_de_partenaire VARCHAR(50),
    personnalite_juridique VARCHAR(50),
    type_de_fournisseur VARCHAR(50),
    nom VARCHAR(100),
    prenom VARCHAR(100),
    voie VARCHAR(200),
    complement VARCHAR(100),
    npa INTEGER,
    localite VARCHAR(100),
    pays VARCHAR(50),
    telephone VARCHAR(15),
    portable VARCHAR(15),
    courriel VARCHAR(100),
    site_web VARCHAR(100),
    activite_specialite TEXT,
    medecin BOOLEAN,
    medecin_intra_hospitalier BOOLEAN,
    horaires_ouverture TEXT,
    coord_geo_nord NUMERIC,
    coord_geo_est NUMERIC,
    coord_geo_long NUMERIC,
    coord_geo_lat NUMERIC,
    besoin_convention BOOLEAN,
    type_de_convention VARCHAR(100),
    date_convention_soumise DATE,
    date_convention_valide_recue DATE,
    date_derniere_modification DATE,
    date_saisie DATE,
    date_dernier_appel_actualisation DATE
);

CREATE TABLE IF NOT EXISTS evenement (
    numero SERIAL PRIMARY KEY,
    nom_evenement VARCHAR(200),
    titre_evenement VARCHAR(200),
    date_debut DATE,
    date_fin DATE,
    horaire_debut TIME,
    horaire_fin TIME,
    texte_libre TEXT,
    court_descriptif TEXT,
    numero_partenaire INTEGER,
    nom_partenaire VARCHAR(200),
    partenaire_de_la_selection TEXT,
    sites_originaux TEXT,
    date_creation DATE,
    mode_creation VARCHAR(50),
    date_derniere_modification DATE,
    mode_modification VARCHAR(50),
    id_dernier_modificateur INTEGER,
    date_de_peremption DATE
);

CREATE INDEX IF NOT EXISTS annuaire_nom_trgm ON annuaire USING gin (nom gin_trgm_ops);
CREATE INDEX IF NOT EXISTS evenement_nom_trgm ON evenement USING gin (nom_evenement gin_trgm_ops);
`
